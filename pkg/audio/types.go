package audio

// Format describes the sample rate and channel count of a PCM stream.
type Format struct {
	// SampleRate in Hz (e.g., 24000 for synthesized speech).
	SampleRate int

	// Channels: 1 for mono, 2 for interleaved stereo.
	Channels int
}

// DefaultFormat is the wire format the speech-synthesis providers emit:
// 24 kHz mono signed 16-bit little-endian PCM.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1}

// Valid reports whether f has a positive sample rate and channel count.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Clip is a fully decoded audio clip: one normalized float slice per channel.
// All channel slices have identical length (the frame count). Samples are in
// [-1, 1], produced by dividing each 16-bit sample by 32768.
type Clip struct {
	// Format records the sample rate and channel count the clip was decoded with.
	Format Format

	// Channels holds one sample slice per channel, de-interleaved.
	Channels [][]float32
}

// FrameCount returns the number of sample frames in the clip. A frame holds
// one sample per channel.
func (c *Clip) FrameCount() int {
	if c == nil || len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Duration returns the clip length in seconds, or 0 for an empty clip.
func (c *Clip) Duration() float64 {
	if c == nil || c.Format.SampleRate <= 0 {
		return 0
	}
	return float64(c.FrameCount()) / float64(c.Format.SampleRate)
}
