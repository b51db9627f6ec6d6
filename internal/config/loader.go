package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"vision":    {"gemini", "openai"},
	"translate": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":       {"elevenlabs", "gemini"},
	"sink":      {"ffplay"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d must not be negative", cfg.Server.MaxUploadMB))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("vision", cfg.Providers.Vision.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("sink", cfg.Playback.Sink.Name)

	// Provider availability warnings
	if cfg.Providers.Vision.Name == "" {
		slog.Warn("no vision provider configured; describe requests will fail")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no tts provider configured; speak requests will fail")
	}

	// Capture
	if q := cfg.Capture.JPEGQuality; q != 0 && (q < 2 || q > 31) {
		errs = append(errs, fmt.Errorf("capture.jpeg_quality %d is out of range [2, 31]", q))
	}
	if iv := cfg.Capture.CameraInterval; iv != 0 && iv < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("capture.camera_interval %s is below the 100ms minimum", iv))
	}

	// Playback
	if cfg.Playback.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("playback.sample_rate %d must not be negative", cfg.Playback.SampleRate))
	}
	if cfg.Playback.Channels < 0 || cfg.Playback.Channels > 2 {
		errs = append(errs, fmt.Errorf("playback.channels %d is out of range [0, 2]", cfg.Playback.Channels))
	}
	if (cfg.Playback.SampleRate == 0) != (cfg.Playback.Channels == 0) {
		errs = append(errs, errors.New("playback.sample_rate and playback.channels must be set together"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
