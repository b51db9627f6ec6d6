// Package translate defines the Provider interface for text translation
// backends. The default adapter (translate/anyllm) prompts a chat model;
// a dedicated translation API could slot in behind the same interface.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Provider is the abstraction over any translation backend.
type Provider interface {
	// Translate returns text rewritten in the language named by the BCP 47
	// tag targetLanguage. Text already in the target language is returned
	// unchanged in meaning; implementations must not return an empty string
	// on success.
	Translate(ctx context.Context, text string, targetLanguage string) (string, error)
}
