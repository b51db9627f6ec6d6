// Package ffplay plays PCM audio through an ffplay subprocess, one process
// per clip. It is the default output device on headless hosts where no audio
// library is linked in.
package ffplay

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/scenevox/scenevox/pkg/audio"
)

// DefaultBinary is the ffplay executable resolved via PATH when no explicit
// path is configured.
const DefaultBinary = "ffplay"

// Option configures a [Sink].
type Option func(*Sink)

// WithBinary overrides the ffplay executable path.
func WithBinary(path string) Option {
	return func(s *Sink) {
		s.binary = path
	}
}

// Sink launches one ffplay process per playback stream and feeds it raw PCM
// over stdin. The process exits on its own once stdin is closed and the
// buffered audio has played out.
type Sink struct {
	binary string
}

// New creates an ffplay-backed [audio.Sink].
func New(opts ...Option) *Sink {
	s := &Sink{binary: DefaultBinary}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Available reports whether the configured ffplay binary can be found. Useful
// as a readiness check before accepting playback requests.
func (s *Sink) Available() error {
	if _, err := exec.LookPath(s.binary); err != nil {
		return fmt.Errorf("ffplay not found: %w", err)
	}
	return nil
}

// Open implements [audio.Sink]. The returned stream is backed by a freshly
// started ffplay process bound to ctx; cancelling ctx kills the process.
func (s *Sink) Open(ctx context.Context, f audio.Format) (audio.SinkStream, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid playback format %dHz/%dch", f.SampleRate, f.Channels)
	}

	cmd := exec.CommandContext(ctx, s.binary,
		"-autoexit",
		"-nodisp",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(f.SampleRate),
		"-ch_layout", layoutFor(f.Channels),
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffplay stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffplay: %w", err)
	}
	return &stream{cmd: cmd, stdin: stdin}, nil
}

// layoutFor maps a channel count to an ffmpeg channel layout name.
func layoutFor(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return strconv.Itoa(channels) + "c"
	}
}

type stream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

func (st *stream) Write(pcm []byte) error {
	_, err := st.stdin.Write(pcm)
	if err != nil {
		return fmt.Errorf("write to ffplay: %w", err)
	}
	return nil
}

// Close ends the input stream and waits for ffplay to finish draining. With
// -autoexit the process exits once the last sample has played.
func (st *stream) Close() error {
	if st.closed {
		return nil
	}
	st.closed = true
	if err := st.stdin.Close(); err != nil {
		_ = st.cmd.Wait()
		return fmt.Errorf("close ffplay input: %w", err)
	}
	if err := st.cmd.Wait(); err != nil {
		return fmt.Errorf("ffplay exited: %w", err)
	}
	return nil
}
