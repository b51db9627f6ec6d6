// Package gemini provides a TTS provider backed by the Gemini speech
// generation API.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/scenevox/scenevox/pkg/audio"
	"github.com/scenevox/scenevox/pkg/provider/tts"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash-preview-tts"

	// DefaultVoice is used when a request does not name a voice.
	DefaultVoice = "Kore"
)

// prebuiltVoices is the static catalogue of Gemini speech voices. The API has
// no listing endpoint.
var prebuiltVoices = []tts.Voice{
	{ID: "Kore", Name: "Kore", Provider: "gemini", Metadata: map[string]string{"tone": "firm"}},
	{ID: "Puck", Name: "Puck", Provider: "gemini", Metadata: map[string]string{"tone": "upbeat"}},
	{ID: "Charon", Name: "Charon", Provider: "gemini", Metadata: map[string]string{"tone": "informative"}},
	{ID: "Fenrir", Name: "Fenrir", Provider: "gemini", Metadata: map[string]string{"tone": "excitable"}},
	{ID: "Aoede", Name: "Aoede", Provider: "gemini", Metadata: map[string]string{"tone": "breezy"}},
	{ID: "Leda", Name: "Leda", Provider: "gemini", Metadata: map[string]string{"tone": "youthful"}},
}

// Provider implements tts.Provider using the Gemini API. Synthesized audio is
// 24 kHz mono signed 16-bit PCM.
type Provider struct {
	client *genai.Client
	model  string
}

// New constructs a Gemini TTS Provider. model may be empty to use
// [DefaultModel].
func New(ctx context.Context, apiKey string, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}
	return &Provider{client: client, model: model}, nil
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	if req.Text == "" {
		return nil, errors.New("gemini: text must not be empty")
	}
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(req.Text)},
	}}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	pcm, err := responseAudio(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &tts.Speech{
		Audio:  base64.StdEncoding.EncodeToString(pcm),
		Format: audio.DefaultFormat,
	}, nil
}

// Voices implements tts.Provider with the static prebuilt catalogue.
func (p *Provider) Voices(_ context.Context) ([]tts.Voice, error) {
	voices := make([]tts.Voice, len(prebuiltVoices))
	copy(voices, prebuiltVoices)
	return voices, nil
}

// responseAudio concatenates the inline audio bytes of the first candidate.
func responseAudio(resp *genai.GenerateContentResponse) ([]byte, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty response")
	}
	var pcm []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil {
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("response has no audio parts")
	}
	return pcm, nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
