package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/internal/observe"
	"github.com/scenevox/scenevox/pkg/audio"
	"github.com/scenevox/scenevox/pkg/media"
)

// errorResponse is the JSON body for all non-2xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// speakRequest is the JSON body for POST /v1/speak.
type speakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// speakResponse is the JSON body for a completed POST /v1/speak.
type speakResponse struct {
	// Status is "played" when the clip finished, or "superseded" when a
	// newer speak request stopped it early.
	Status string `json:"status"`
}

// voicesResponse is the JSON body for GET /v1/voices.
type voicesResponse struct {
	Voices []voiceEntry `json:"voices"`
}

type voiceEntry struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// videoExtensions are upload filename extensions routed through video
// sampling. Everything else is treated as a still image.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".m4v":  true,
}

// handleDescribe accepts a multipart upload under the "media" field and
// returns a narration for it. Videos are sampled at multiple offsets, images
// are described from a single frame.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	file, header, err := r.FormFile("media")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "missing media upload field")
		return
	}
	defer file.Close()

	path, err := saveUpload(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store upload: "+err.Error())
		return
	}
	defer os.Remove(path)

	prompt := r.FormValue("prompt")
	lang := r.FormValue("language")

	var n *narrator.Narration
	if isVideoUpload(header.Filename, header.Header.Get("Content-Type")) {
		n, err = s.engine.DescribeVideo(r.Context(), path, prompt, lang)
	} else {
		n, err = s.engine.DescribeImage(r.Context(), path, prompt, lang)
	}
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// handleSpeak synthesises the request text and plays it through the host
// audio output. A request superseded by a newer one still gets a 200; the
// status field tells the two outcomes apart.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	err := s.engine.Speak(r.Context(), req.Text, req.Voice)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, speakResponse{Status: "played"})
	case errors.Is(err, audio.ErrSuperseded):
		writeJSON(w, http.StatusOK, speakResponse{Status: "superseded"})
	default:
		writeEngineError(w, r, err)
	}
}

// handleVoices lists the voices of the configured TTS provider.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.engine.Voices(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	resp := voicesResponse{Voices: make([]voiceEntry, 0, len(voices))}
	for _, v := range voices {
		resp.Voices = append(resp.Voices, voiceEntry{
			ID:       v.ID,
			Name:     v.Name,
			Provider: v.Provider,
			Metadata: v.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeEngineError maps pipeline errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, media.ErrMediaLoad), errors.Is(err, audio.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, narrator.ErrNoVision), errors.Is(err, narrator.ErrNoTTS),
		errors.Is(err, audio.ErrPlayback):
		status = http.StatusServiceUnavailable
	}

	observe.Logger(r.Context()).Warn("request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err)
	writeError(w, status, err.Error())
}

// saveUpload copies an uploaded file to a temp file, preserving the
// extension so ffmpeg can sniff the container format.
func saveUpload(src multipart.File, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "scenevox-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// isVideoUpload decides the sampling path for an upload.
func isVideoUpload(filename, contentType string) bool {
	if strings.HasPrefix(contentType, "video/") {
		return true
	}
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
