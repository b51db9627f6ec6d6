// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or
// Gemini) and returns a complete clip of base64-encoded PCM per request.
// Adapters live in subpackages (tts/elevenlabs, tts/gemini, tts/mock).
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/scenevox/scenevox/pkg/audio"
)

// Request is one synthesis request.
type Request struct {
	// Text is the text to speak. Must be non-empty.
	Text string

	// Voice is the provider-specific voice identifier. Empty selects the
	// provider's default voice.
	Voice string
}

// Speech is a synthesized clip.
type Speech struct {
	// Audio is base64-encoded signed 16-bit little-endian PCM, without any
	// container or header.
	Audio string

	// Format is the sample rate and channel count Audio was synthesized in.
	Format audio.Format
}

// Voice describes one voice in a provider's catalogue.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which backend this voice belongs to.
	Provider string

	// Metadata holds provider-specific voice attributes (gender, accent, etc.).
	Metadata map[string]string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize speaks req.Text and returns the complete clip. It blocks
	// until synthesis finishes; partial audio is never returned.
	Synthesize(ctx context.Context, req Request) (*Speech, error)

	// Voices returns the provider's current voice catalogue. The list may
	// change between calls if the underlying service adds or removes voices.
	Voices(ctx context.Context) ([]Voice, error)
}
