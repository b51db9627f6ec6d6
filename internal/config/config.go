// Package config provides the configuration schema, loader, and provider
// registry for the Scenevox scene narration service.
package config

import "time"

// LogLevel controls log verbosity for the Scenevox server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Scenevox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Capture   CaptureConfig   `yaml:"capture"`
	Playback  PlaybackConfig  `yaml:"playback"`
}

// ServerConfig holds network and logging settings for the Scenevox server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MaxUploadMB caps the size of uploaded media files in megabytes.
	// Zero means the built-in default of 64.
	MaxUploadMB int `yaml:"max_upload_mb"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	Vision    ProviderEntry `yaml:"vision"`
	Translate ProviderEntry `yaml:"translate"`
	TTS       ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini", "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// CaptureConfig holds settings for frame extraction from uploaded and
// camera media.
type CaptureConfig struct {
	// FFmpegPath overrides the ffmpeg executable path. Empty resolves via PATH.
	FFmpegPath string `yaml:"ffmpeg_path"`

	// FFprobePath overrides the ffprobe executable path. Empty resolves via PATH.
	FFprobePath string `yaml:"ffprobe_path"`

	// JPEGQuality is the ffmpeg mjpeg quantizer for extracted frames (2..31,
	// lower is better). Zero means the built-in default.
	JPEGQuality int `yaml:"jpeg_quality"`

	// CameraInterval is how often a connected camera feed is described.
	// Zero means the built-in default of 5 seconds.
	CameraInterval time.Duration `yaml:"camera_interval"`
}

// PlaybackConfig holds audio output settings.
type PlaybackConfig struct {
	// Sink selects the registered output device implementation (e.g., "ffplay").
	Sink ProviderEntry `yaml:"sink"`

	// SampleRate forces playback at this rate in Hz. Zero plays each clip in
	// the format it was synthesized in.
	SampleRate int `yaml:"sample_rate"`

	// Channels forces playback with this channel count. Zero plays each clip
	// in the format it was synthesized in.
	Channels int `yaml:"channels"`
}
