package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// defaultJPEGQuality is the ffmpeg mjpeg quantizer used for extracted frames.
// The mjpeg scale runs 2 (best) to 31; 2 corresponds to roughly 80% JPEG
// quality, good enough for vision models without bloating requests.
const defaultJPEGQuality = 2

// SamplerOption configures a [Sampler].
type SamplerOption func(*Sampler)

// WithFFmpegPath overrides the ffmpeg executable path.
func WithFFmpegPath(path string) SamplerOption {
	return func(s *Sampler) {
		s.ffmpeg = path
	}
}

// WithFFprobePath overrides the ffprobe executable path.
func WithFFprobePath(path string) SamplerOption {
	return func(s *Sampler) {
		s.ffprobe = path
	}
}

// WithJPEGQuality sets the mjpeg quantizer for extracted frames (2..31,
// lower is better).
func WithJPEGQuality(q int) SamplerOption {
	return func(s *Sampler) {
		s.quality = q
	}
}

// Sampler extracts frames from media files via ffmpeg subprocesses. Each
// extraction runs one process to completion before the next starts.
//
// Sampler is safe for concurrent use.
type Sampler struct {
	ffmpeg  string
	ffprobe string
	quality int
}

// NewSampler creates a Sampler that resolves ffmpeg and ffprobe via PATH
// unless overridden by options.
func NewSampler(opts ...SamplerOption) *Sampler {
	s := &Sampler{
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		quality: defaultJPEGQuality,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Available reports whether both configured binaries can be found. Useful as
// a readiness check.
func (s *Sampler) Available() error {
	if _, err := exec.LookPath(s.ffmpeg); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := exec.LookPath(s.ffprobe); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}
	return nil
}

// Sample extracts [SampleCount] frames from the video at path, seeking to the
// offsets returned by [SeekOffsets] in order. Extraction is all-or-nothing:
// if the file cannot be probed or any single frame fails to decode, Sample
// returns [ErrMediaLoad] and no frames.
func (s *Sampler) Sample(ctx context.Context, path string) ([]Frame, error) {
	duration, err := s.Duration(ctx, path)
	if err != nil {
		return nil, err
	}

	offsets := SeekOffsets(duration)
	frames := make([]Frame, 0, SampleCount)
	for _, offset := range offsets {
		jpeg, err := s.captureAt(ctx, path, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: frame at %.3fs: %v", ErrMediaLoad, offset, err)
		}
		frames = append(frames, Frame{
			Timestamp: offset,
			JPEG:      base64.StdEncoding.EncodeToString(jpeg),
		})
	}

	slog.Debug("sampled video frames",
		"path", path,
		"duration", duration,
		"frames", len(frames))
	return frames, nil
}

// CaptureStill converts the image at path to a single JPEG frame. Videos work
// too; the first frame is taken.
func (s *Sampler) CaptureStill(ctx context.Context, path string) (*Frame, error) {
	jpeg, err := s.captureAt(ctx, path, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaLoad, err)
	}
	return &Frame{Timestamp: 0, JPEG: base64.StdEncoding.EncodeToString(jpeg)}, nil
}

// Duration probes the media duration in seconds.
func (s *Sampler) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe %s: %v", ErrMediaLoad, path, commandError(err))
	}
	duration, err := parseDuration(string(output))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMediaLoad, err)
	}
	return duration, nil
}

// captureAt runs one ffmpeg process that seeks to offset, decodes a single
// frame, and writes it to stdout as JPEG. The process exiting is what
// guarantees the seek and decode completed.
func (s *Sampler) captureAt(ctx context.Context, path string, offset float64) ([]byte, error) {
	args := captureArgs(path, offset, s.quality)
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %v: %s", err, firstLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %.3fs", offset)
	}
	return stdout.Bytes(), nil
}

// captureArgs builds the ffmpeg argument list for a single-frame capture.
func captureArgs(path string, offset float64, quality int) []string {
	return []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(quality),
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"pipe:1",
	}
}

// parseDuration parses ffprobe's duration output.
func parseDuration(output string) (float64, error) {
	text := strings.TrimSpace(output)
	duration, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %v", text, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}

// commandError extracts stderr from an exec error when available.
func commandError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%v: %s", err, firstLine(string(exitErr.Stderr)))
	}
	return err
}

// firstLine trims output to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
