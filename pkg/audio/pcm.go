// Package audio provides the PCM decoding, format conversion, and playback
// primitives for Scenevox.
//
// The two primary entry points are:
//
//   - [DecodeBase64PCM16] — turns the base64 PCM payload returned by a
//     speech-synthesis provider into a normalized [Clip].
//   - [Player] — plays a [Clip] through a [Sink] with single-flight
//     semantics: starting a new clip stops whichever clip is playing.
//
// Sinks live in adapter subpackages (audio/ffplay for a subprocess-backed
// output device, audio/mock for tests).
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDecode is returned when a PCM payload cannot be decoded: the base64 text
// is malformed, the byte length is not a multiple of the 2-byte sample size,
// or the sample count does not divide evenly across channels.
var ErrDecode = errors.New("audio: malformed PCM payload")

// DecodeBase64PCM16 decodes a base64 payload of signed 16-bit little-endian
// PCM into a normalized [Clip]. The payload carries no header, so the caller
// must supply the format it was produced with (typically [DefaultFormat]).
func DecodeBase64PCM16(payload string, f Format) (*Clip, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
	}
	return DecodePCM16(raw, f)
}

// DecodePCM16 decodes raw signed 16-bit little-endian PCM bytes into a
// normalized [Clip]. Each sample is divided by 32768, so -32768 maps to
// exactly -1.0 and 32767 to 32767/32768.
func DecodePCM16(data []byte, f Format) (*Clip, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: invalid format %dHz/%dch", ErrDecode, f.SampleRate, f.Channels)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", ErrDecode, len(data))
	}
	samples := len(data) / 2
	if samples%f.Channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide across %d channels", ErrDecode, samples, f.Channels)
	}

	frames := samples / f.Channels
	channels := make([][]float32, f.Channels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := range frames {
		for ch := range f.Channels {
			s := int16(binary.LittleEndian.Uint16(data[(i*f.Channels+ch)*2:]))
			channels[ch][i] = float32(s) / 32768.0
		}
	}
	return &Clip{Format: f, Channels: channels}, nil
}

// EncodePCM16 interleaves a clip back into signed 16-bit little-endian PCM
// bytes. Samples are scaled by 32768, rounded to nearest, and clamped to the
// int16 range, so decode(encode(x)) is within one quantization step of x.
func EncodePCM16(c *Clip) []byte {
	frames := c.FrameCount()
	out := make([]byte, frames*len(c.Channels)*2)
	for i := range frames {
		for ch := range c.Channels {
			v := math.Round(float64(c.Channels[ch][i]) * 32768)
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			binary.LittleEndian.PutUint16(out[(i*len(c.Channels)+ch)*2:], uint16(int16(v)))
		}
	}
	return out
}
