// Package mock provides an in-memory audio sink for tests.
package mock

import (
	"context"
	"sync"

	"github.com/scenevox/scenevox/pkg/audio"
)

// Sink is an in-memory [audio.Sink] that records everything written to it.
// The zero value is ready to use.
type Sink struct {
	// OpenError, when set, is returned by Open instead of a stream.
	OpenError error

	// WriteError, when set, is returned by the first Write on every stream.
	WriteError error

	// Block makes every stream's Write wait until the open ctx is cancelled,
	// simulating a device that drains slower than it is fed.
	Block bool

	mu        sync.Mutex
	opens     int
	active    int
	maxActive int
	formats   []audio.Format
	written   [][]byte
}

// Open implements [audio.Sink].
func (s *Sink) Open(ctx context.Context, f audio.Format) (audio.SinkStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.OpenError != nil {
		return nil, s.OpenError
	}
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.formats = append(s.formats, f)
	s.written = append(s.written, nil)
	return &stream{sink: s, ctx: ctx, idx: len(s.written) - 1}, nil
}

// OpenCount returns how many times Open was called, including failed opens.
func (s *Sink) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// MaxActive returns the highest number of streams that were open at the same
// time over the sink's lifetime.
func (s *Sink) MaxActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive
}

// Active returns the number of currently open streams.
func (s *Sink) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Formats returns the format each successful Open was called with, in order.
func (s *Sink) Formats() []audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audio.Format(nil), s.formats...)
}

// Written returns the bytes written to the n-th opened stream.
func (s *Sink) Written(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n >= len(s.written) {
		return nil
	}
	return append([]byte(nil), s.written[n]...)
}

type stream struct {
	sink   *Sink
	ctx    context.Context
	idx    int
	closed bool
}

func (st *stream) Write(pcm []byte) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}
	st.sink.mu.Lock()
	writeErr := st.sink.WriteError
	st.sink.mu.Unlock()
	if writeErr != nil {
		return writeErr
	}
	if st.sink.Block {
		<-st.ctx.Done()
		return st.ctx.Err()
	}
	st.sink.mu.Lock()
	st.sink.written[st.idx] = append(st.sink.written[st.idx], pcm...)
	st.sink.mu.Unlock()
	return nil
}

func (st *stream) Close() error {
	if st.closed {
		return nil
	}
	st.closed = true
	st.sink.mu.Lock()
	st.sink.active--
	st.sink.mu.Unlock()
	return st.ctx.Err()
}
