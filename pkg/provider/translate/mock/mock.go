// Package mock provides a test double for the translate.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/scenevox/scenevox/pkg/provider/translate"
)

// TranslateCall records a single invocation of Translate.
type TranslateCall struct {
	// Ctx is the context passed to Translate.
	Ctx context.Context
	// Text is the text passed to Translate.
	Text string
	// TargetLanguage is the language tag passed to Translate.
	TargetLanguage string
}

// Provider is a mock implementation of translate.Provider.
type Provider struct {
	mu sync.Mutex

	// TranslateResult is returned by Translate. When empty and TranslateErr is
	// nil, Translate echoes its input.
	TranslateResult string

	// TranslateErr, if non-nil, is returned as the error from Translate.
	TranslateErr error

	// TranslateCalls records every call to Translate in order.
	TranslateCalls []TranslateCall
}

// Translate records the call and returns TranslateResult, TranslateErr.
func (p *Provider) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Ctx: ctx, Text: text, TargetLanguage: targetLanguage})
	if p.TranslateErr != nil {
		return "", p.TranslateErr
	}
	if p.TranslateResult == "" {
		return text, nil
	}
	return p.TranslateResult, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = nil
}

// Ensure Provider implements translate.Provider at compile time.
var _ translate.Provider = (*Provider)(nil)
