// Command scenevox is the main entry point for the Scenevox narration server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/scenevox/scenevox/internal/config"
	"github.com/scenevox/scenevox/internal/health"
	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/internal/observe"
	"github.com/scenevox/scenevox/internal/server"
	"github.com/scenevox/scenevox/pkg/audio"
	"github.com/scenevox/scenevox/pkg/audio/ffplay"
	"github.com/scenevox/scenevox/pkg/media"
	"github.com/scenevox/scenevox/pkg/provider/translate"
	translateanyllm "github.com/scenevox/scenevox/pkg/provider/translate/anyllm"
	"github.com/scenevox/scenevox/pkg/provider/tts"
	ttselevenlabs "github.com/scenevox/scenevox/pkg/provider/tts/elevenlabs"
	ttsgemini "github.com/scenevox/scenevox/pkg/provider/tts/gemini"
	"github.com/scenevox/scenevox/pkg/provider/vision"
	visiongemini "github.com/scenevox/scenevox/pkg/provider/vision/gemini"
	visionopenai "github.com/scenevox/scenevox/pkg/provider/vision/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "scenevox: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "scenevox: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("scenevox starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "scenevox",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(ctx, reg)

	// ── Capture + playback infrastructure ─────────────────────────────────────
	sampler := buildSampler(cfg.Capture)
	if err := sampler.Available(); err != nil {
		slog.Warn("media tools unavailable — describe endpoints will fail", "err", err)
	}

	sink, err := buildSink(cfg.Playback, reg)
	if err != nil {
		slog.Error("failed to create audio sink", "err", err)
		return 1
	}
	player := buildPlayer(cfg.Playback, sink)

	// ── Narration engine ──────────────────────────────────────────────────────
	engine, err := buildEngine(cfg, reg, sampler, player)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			logLevel.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if diff.ProvidersChanged || diff.CaptureChanged || diff.PlaybackChanged {
			slog.Warn("provider, capture, or playback changes require a restart to take effect")
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	checks := health.New(
		health.Checker{Name: "media-tools", Check: func(context.Context) error {
			return sampler.Available()
		}},
		sinkChecker(sink),
		health.Provider("vision", engine.HasVision()),
		health.Provider("tts", engine.HasTTS()),
	)

	srv := server.New(cfg.Server, engine,
		server.WithHealth(checks),
		server.WithCameraDefaults(cfg.Capture),
	)

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with Scenevox. Used for startup logging.
var builtinProviders = map[string][]string{
	"vision":    {"gemini", "openai"},
	"translate": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":       {"elevenlabs", "gemini"},
	"sink":      {"ffplay"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(ctx context.Context, reg *config.Registry) {
	// ── Vision ────────────────────────────────────────────────────────────────

	reg.RegisterVision("gemini", func(entry config.ProviderEntry) (vision.Provider, error) {
		return visiongemini.New(ctx, entry.APIKey, entry.Model)
	})

	reg.RegisterVision("openai", func(entry config.ProviderEntry) (vision.Provider, error) {
		var opts []visionopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, visionopenai.WithBaseURL(entry.BaseURL))
		}
		return visionopenai.New(entry.APIKey, entry.Model, opts...)
	})

	// ── Translation ───────────────────────────────────────────────────────────
	// All chat-capable backends share the same pattern: optional APIKey +
	// optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterTranslate(providerName, func(entry config.ProviderEntry) (translate.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return translateanyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterTranslate("ollama", func(entry config.ProviderEntry) (translate.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return translateanyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []ttselevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, ttselevenlabs.WithModel(entry.Model))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, ttselevenlabs.WithOutputFormat(outputFmt))
		}
		return ttselevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("gemini", func(entry config.ProviderEntry) (tts.Provider, error) {
		return ttsgemini.New(ctx, entry.APIKey, entry.Model)
	})

	// ── Audio sink ────────────────────────────────────────────────────────────

	reg.RegisterSink("ffplay", func(entry config.ProviderEntry) (audio.Sink, error) {
		var opts []ffplay.Option
		if binary := optString(entry.Options, "binary"); binary != "" {
			opts = append(opts, ffplay.WithBinary(binary))
		}
		return ffplay.New(opts...), nil
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildSampler creates the frame sampler from capture config.
func buildSampler(cfg config.CaptureConfig) *media.Sampler {
	var opts []media.SamplerOption
	if cfg.FFmpegPath != "" {
		opts = append(opts, media.WithFFmpegPath(cfg.FFmpegPath))
	}
	if cfg.FFprobePath != "" {
		opts = append(opts, media.WithFFprobePath(cfg.FFprobePath))
	}
	if cfg.JPEGQuality != 0 {
		opts = append(opts, media.WithJPEGQuality(cfg.JPEGQuality))
	}
	return media.NewSampler(opts...)
}

// buildSink creates the audio output sink. Defaults to ffplay when the
// config names none.
func buildSink(cfg config.PlaybackConfig, reg *config.Registry) (audio.Sink, error) {
	entry := cfg.Sink
	if entry.Name == "" {
		entry.Name = "ffplay"
	}
	sink, err := reg.CreateSink(entry)
	if err != nil {
		return nil, fmt.Errorf("create sink %q: %w", entry.Name, err)
	}
	slog.Info("audio sink created", "name", entry.Name)
	return sink, nil
}

// buildPlayer creates the single-flight player, converting clips to a fixed
// output format when the config requests one.
func buildPlayer(cfg config.PlaybackConfig, sink audio.Sink) *audio.Player {
	var opts []audio.PlayerOption
	if cfg.SampleRate > 0 {
		opts = append(opts, audio.WithOutputFormat(audio.Format{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
		}))
	}
	return audio.NewPlayer(sink, opts...)
}

// buildEngine instantiates all providers named in cfg using the registry and
// assembles the narration engine.
func buildEngine(cfg *config.Config, reg *config.Registry, sampler *media.Sampler, player *audio.Player) (*narrator.Engine, error) {
	var opts []narrator.Option

	if name := cfg.Providers.Vision.Name; name != "" {
		p, err := reg.CreateVision(cfg.Providers.Vision)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "vision", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create vision provider %q: %w", name, err)
		} else {
			opts = append(opts, narrator.WithVision(name, p))
			slog.Info("provider created", "kind", "vision", "name", name)
		}
	}

	if name := cfg.Providers.Translate.Name; name != "" {
		p, err := reg.CreateTranslate(cfg.Providers.Translate)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "translate", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create translate provider %q: %w", name, err)
		} else {
			opts = append(opts, narrator.WithTranslator(name, p))
			slog.Info("provider created", "kind", "translate", "name", name)
		}
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "tts", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		} else {
			opts = append(opts, narrator.WithTTS(name, p))
			slog.Info("provider created", "kind", "tts", "name", name)
		}
	}

	return narrator.New(sampler, player, opts...), nil
}

// sinkChecker builds a readiness check for sinks that can report
// availability, such as ffplay probing PATH.
func sinkChecker(sink audio.Sink) health.Checker {
	type availabler interface {
		Available() error
	}
	return health.Checker{Name: "audio-sink", Check: func(context.Context) error {
		if a, ok := sink.(availabler); ok {
			return a.Available()
		}
		return nil
	}}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Scenevox — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Vision", cfg.Providers.Vision.Name, cfg.Providers.Vision.Model)
	printProvider("Translate", cfg.Providers.Translate.Name, cfg.Providers.Translate.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("Sink", cfg.Playback.Sink.Name, "")
	if cfg.Capture.CameraInterval > 0 {
		fmt.Printf("║  Camera interval : %-19s ║\n", cfg.Capture.CameraInterval)
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
