package config_test

import (
	"errors"
	"testing"

	"github.com/scenevox/scenevox/internal/config"
	"github.com/scenevox/scenevox/pkg/provider/tts"
	ttsmock "github.com/scenevox/scenevox/pkg/provider/tts/mock"
	"github.com/scenevox/scenevox/pkg/provider/vision"
	visionmock "github.com/scenevox/scenevox/pkg/provider/vision/mock"
)

func TestRegistryCreateVision(t *testing.T) {
	r := config.NewRegistry()
	want := &visionmock.Provider{}
	r.RegisterVision("mock", func(entry config.ProviderEntry) (vision.Provider, error) {
		if entry.Model != "test-model" {
			t.Errorf("entry model: got %q", entry.Model)
		}
		return want, nil
	})

	got, err := r.CreateVision(config.ProviderEntry{Name: "mock", Model: "test-model"})
	if err != nil {
		t.Fatalf("CreateVision: %v", err)
	}
	if got != want {
		t.Error("factory result not returned")
	}
}

func TestRegistryNotRegistered(t *testing.T) {
	r := config.NewRegistry()
	_, err := r.CreateTTS(config.ProviderEntry{Name: "missing"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("got %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := config.NewRegistry()
	first := &ttsmock.Provider{}
	second := &ttsmock.Provider{}
	r.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) { return first, nil })
	r.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) { return second, nil })

	got, err := r.CreateTTS(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateTTS: %v", err)
	}
	if got != second {
		t.Error("later registration did not overwrite earlier one")
	}
}
