package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPlayback is returned when an output stream cannot be constructed or
// fails mid-clip (missing output device, empty clip, device write error).
var ErrPlayback = errors.New("audio: playback failed")

// ErrSuperseded is returned by [Player.Play] when a later Play call stopped
// this clip before it finished. It signals preemption, not failure.
var ErrSuperseded = errors.New("audio: playback superseded")

// playbackChunkBytes is how much PCM is handed to the sink per write. Small
// enough that a superseding call silences the old clip within tens of
// milliseconds.
const playbackChunkBytes = 4096

// PlayerOption configures a [Player].
type PlayerOption func(*Player)

// WithOutputFormat makes the player convert every clip to f before opening
// the sink. Without this option each clip plays in its own decoded format.
func WithOutputFormat(f Format) PlayerOption {
	return func(p *Player) {
		p.out = &f
	}
}

// Player plays clips through a [Sink] with single-flight semantics: at most
// one clip is audible at any time, and starting a new clip stops the current
// one before the new stream is opened. There is no queue and no explicit
// stop call; superseding is the only cancellation mechanism.
//
// Player is safe for concurrent use.
type Player struct {
	sink Sink
	out  *Format

	mu      sync.Mutex
	current *playback
}

// playback is the single active-playback slot entry.
type playback struct {
	cancel     context.CancelFunc
	done       chan struct{}
	superseded bool
}

// NewPlayer creates a Player that opens one stream on sink per Play call.
func NewPlayer(sink Sink, opts ...PlayerOption) *Player {
	p := &Player{sink: sink}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Play plays clip to its natural end and then returns nil.
//
// If another clip is playing when Play is called, that clip is stopped first
// and its Play call returns [ErrSuperseded]. A fresh sink stream is opened
// for every call; stream construction failures and device errors are
// reported as [ErrPlayback]. Cancelling ctx stops playback and returns
// ctx.Err().
func (p *Player) Play(ctx context.Context, clip *Clip) error {
	if clip.FrameCount() == 0 {
		return fmt.Errorf("%w: empty clip", ErrPlayback)
	}
	if !clip.Format.Valid() {
		return fmt.Errorf("%w: invalid clip format %dHz/%dch", ErrPlayback, clip.Format.SampleRate, clip.Format.Channels)
	}

	pcm := EncodePCM16(clip)
	format := clip.Format
	if p.out != nil {
		pcm = ConvertPCM16(pcm, format, *p.out)
		format = *p.out
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pb := &playback{cancel: cancel, done: make(chan struct{})}
	defer close(pb.done)

	// Take the active slot: stop the previous clip and wait for its stream
	// to wind down so two sinks never produce output at once.
	p.mu.Lock()
	prev := p.current
	if prev != nil {
		prev.superseded = true
		prev.cancel()
	}
	p.current = pb
	p.mu.Unlock()
	if prev != nil {
		<-prev.done
	}

	stream, err := p.sink.Open(ctx, format)
	if err != nil {
		p.release(pb)
		return fmt.Errorf("%w: open stream: %v", ErrPlayback, err)
	}

	err = writeAll(ctx, stream, pcm)
	p.release(pb)

	if err != nil {
		if reason := p.stopReason(ctx, pb); reason != nil {
			return reason
		}
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	if reason := p.stopReason(ctx, pb); reason != nil {
		return reason
	}
	return nil
}

// writeAll streams pcm to the sink in chunks and closes the stream, which
// blocks until the device drains.
func writeAll(ctx context.Context, stream SinkStream, pcm []byte) error {
	for len(pcm) > 0 {
		if err := ctx.Err(); err != nil {
			// Best-effort silence before reporting interruption.
			_ = stream.Close()
			return err
		}
		n := min(playbackChunkBytes, len(pcm))
		if err := stream.Write(pcm[:n]); err != nil {
			_ = stream.Close()
			return err
		}
		pcm = pcm[n:]
	}
	return stream.Close()
}

// release clears the active slot if pb still owns it.
func (p *Player) release(pb *playback) {
	p.mu.Lock()
	if p.current == pb {
		p.current = nil
	}
	p.mu.Unlock()
}

// stopReason reports why pb stopped early: ErrSuperseded when a later Play
// preempted it, ctx.Err() when the caller cancelled, nil when it was not
// interrupted at all.
func (p *Player) stopReason(ctx context.Context, pb *playback) error {
	p.mu.Lock()
	superseded := pb.superseded
	p.mu.Unlock()
	if superseded {
		return ErrSuperseded
	}
	return ctx.Err()
}
