package audio

import "context"

// SinkStream is one open playback stream on an output device. Streams are
// single-use: write the whole clip, then Close.
//
// Implementations are driven by a single goroutine (the [Player]); they do
// not need to be safe for concurrent use.
type SinkStream interface {
	// Write queues raw 16-bit little-endian PCM for playback. It may block
	// while the device drains earlier data, but must return promptly with an
	// error once the ctx passed to [Sink.Open] is cancelled.
	Write(pcm []byte) error

	// Close signals end of input and blocks until queued audio has finished
	// playing (or the open ctx is cancelled). Returning nil means the clip
	// played to its natural end.
	Close() error
}

// Sink is an audio output device factory. Open is called once per playback;
// the [Player] never reuses a stream across clips.
//
// Implementations must be safe for concurrent use; the streams they return
// need not be.
type Sink interface {
	// Open creates a fresh playback stream for the given format. The stream
	// is bound to ctx: cancelling it must abort pending Write and Close
	// calls and silence the device.
	Open(ctx context.Context, f Format) (SinkStream, error)
}
