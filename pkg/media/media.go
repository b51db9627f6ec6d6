// Package media samples representative frames from video and image files.
//
// The [Sampler] shells out to ffmpeg and ffprobe, which keeps the module free
// of codec bindings and handles every container format the host's ffmpeg
// build does. Frames come back JPEG-compressed and base64-encoded, ready to
// hand to a vision model.
package media

import "errors"

// ErrMediaLoad is returned when a file cannot be probed or decoded: missing
// file, unsupported codec, corrupt container, or a failed seek.
var ErrMediaLoad = errors.New("media: cannot load media")

// SampleCount is the number of frames [Sampler.Sample] extracts per video.
const SampleCount = 3

// sampleFractions are the positions along the video's duration where frames
// are taken. Spread across beginning, middle, and end so the samples cover
// distinct scenes.
var sampleFractions = [SampleCount]float64{0.2, 0.5, 0.8}

// Frame is one extracted video frame.
type Frame struct {
	// Timestamp is the seek position in seconds the frame was taken at.
	Timestamp float64

	// JPEG is the base64-encoded JPEG image, without any data-URI prefix.
	JPEG string
}

// SeekOffsets returns the timestamps, in seconds, at which Sample extracts
// frames from a video of the given duration. Offsets are strictly increasing.
func SeekOffsets(duration float64) [SampleCount]float64 {
	var offsets [SampleCount]float64
	for i, f := range sampleFractions {
		offsets[i] = duration * f
	}
	return offsets
}
