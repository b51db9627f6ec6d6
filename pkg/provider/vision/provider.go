// Package vision defines the Provider interface for image-description
// backends.
//
// A vision provider wraps a multimodal model (e.g., Gemini or an OpenAI
// vision model) and turns a set of JPEG frames into a structured scene
// description. Adapters live in subpackages (vision/gemini, vision/openai,
// vision/mock).
//
// Implementations must be safe for concurrent use.
package vision

import "context"

// Request is one description request.
type Request struct {
	// Frames are base64-encoded JPEG images, without a data-URI prefix,
	// ordered by their position in the source media.
	Frames []string

	// Prompt is an optional caller hint about what to focus on.
	Prompt string

	// Language is the BCP 47 tag the description should be written in.
	// Empty means English.
	Language string
}

// Description is the structured result of describing one or more frames.
type Description struct {
	// Caption is a single-sentence summary of the scene.
	Caption string `json:"caption"`

	// Narrative is a short spoken-style account of what happens across the
	// frames, suitable for speech synthesis.
	Narrative string `json:"narrative"`

	// Subjects lists the distinct people, animals, and objects identified.
	Subjects []string `json:"subjects"`

	// Language is the language the caption and narrative are written in.
	Language string `json:"language"`
}

// Provider is the abstraction over any image-description backend.
type Provider interface {
	// Describe produces a structured description of the frames in req.
	// Implementations must return an error rather than a partially filled
	// Description; at minimum Caption and Narrative are populated on success.
	Describe(ctx context.Context, req Request) (*Description, error)
}
