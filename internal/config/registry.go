package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/scenevox/scenevox/pkg/audio"
	"github.com/scenevox/scenevox/pkg/provider/translate"
	"github.com/scenevox/scenevox/pkg/provider/tts"
	"github.com/scenevox/scenevox/pkg/provider/vision"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	vision    map[string]func(ProviderEntry) (vision.Provider, error)
	translate map[string]func(ProviderEntry) (translate.Provider, error)
	tts       map[string]func(ProviderEntry) (tts.Provider, error)
	sink      map[string]func(ProviderEntry) (audio.Sink, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		vision:    make(map[string]func(ProviderEntry) (vision.Provider, error)),
		translate: make(map[string]func(ProviderEntry) (translate.Provider, error)),
		tts:       make(map[string]func(ProviderEntry) (tts.Provider, error)),
		sink:      make(map[string]func(ProviderEntry) (audio.Sink, error)),
	}
}

// RegisterVision registers a vision provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterVision(name string, factory func(ProviderEntry) (vision.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vision[name] = factory
}

// RegisterTranslate registers a translation provider factory under name.
func (r *Registry) RegisterTranslate(name string, factory func(ProviderEntry) (translate.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translate[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterSink registers an audio output device factory under name.
func (r *Registry) RegisterSink(name string, factory func(ProviderEntry) (audio.Sink, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink[name] = factory
}

// CreateVision instantiates a vision provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateVision(entry ProviderEntry) (vision.Provider, error) {
	r.mu.RLock()
	factory, ok := r.vision[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vision/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTranslate instantiates a translation provider using the factory registered under entry.Name.
func (r *Registry) CreateTranslate(entry ProviderEntry) (translate.Provider, error) {
	r.mu.RLock()
	factory, ok := r.translate[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: translate/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSink instantiates an audio output device using the factory registered under entry.Name.
func (r *Registry) CreateSink(entry ProviderEntry) (audio.Sink, error) {
	r.mu.RLock()
	factory, ok := r.sink[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: sink/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
