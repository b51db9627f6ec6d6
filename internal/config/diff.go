package config

import "reflect"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ProvidersChanged is true when any provider entry changed. Provider
	// swaps require rebuilding the pipeline.
	ProvidersChanged bool
	ProviderChanges  []ProviderDiff

	// CaptureChanged is true when frame extraction settings changed.
	CaptureChanged bool

	// PlaybackChanged is true when the sink or output format changed.
	PlaybackChanged bool
}

// ProviderDiff names one provider kind whose entry changed.
type ProviderDiff struct {
	// Kind is "vision", "translate", or "tts".
	Kind string

	// Old and New are the entries before and after the change.
	Old ProviderEntry
	New ProviderEntry
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	kinds := []struct {
		kind     string
		old, new ProviderEntry
	}{
		{"vision", old.Providers.Vision, new.Providers.Vision},
		{"translate", old.Providers.Translate, new.Providers.Translate},
		{"tts", old.Providers.TTS, new.Providers.TTS},
	}
	for _, k := range kinds {
		if !reflect.DeepEqual(k.old, k.new) {
			d.ProvidersChanged = true
			d.ProviderChanges = append(d.ProviderChanges, ProviderDiff{Kind: k.kind, Old: k.old, New: k.new})
		}
	}

	if old.Capture != new.Capture {
		d.CaptureChanged = true
	}
	if !reflect.DeepEqual(old.Playback, new.Playback) {
		d.PlaybackChanged = true
	}

	return d
}
