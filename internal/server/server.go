// Package server exposes the narration engine over HTTP.
//
// Endpoints:
//
//   - POST /v1/describe — upload a video or image, receive a narration.
//   - POST /v1/speak    — synthesise text and play it on the host's speakers.
//   - GET  /v1/voices   — list voices offered by the TTS provider.
//   - GET  /v1/camera   — WebSocket camera feed with periodic narrations.
//   - GET  /healthz, /readyz, /metrics — operational endpoints.
//
// All routes run behind [observe.Middleware], which handles tracing,
// correlation IDs, and request metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scenevox/scenevox/internal/config"
	"github.com/scenevox/scenevox/internal/health"
	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/internal/observe"
	"github.com/scenevox/scenevox/pkg/provider/tts"
)

// defaultMaxUploadMB caps media uploads when the config leaves it unset.
const defaultMaxUploadMB = 64

// shutdownTimeout bounds graceful shutdown once the run context is cancelled.
const shutdownTimeout = 15 * time.Second

// Engine is the narration surface the server exposes. Implemented by
// [narrator.Engine]; narrowed to an interface so handlers can be tested with
// a stub.
type Engine interface {
	DescribeVideo(ctx context.Context, path, prompt, lang string) (*narrator.Narration, error)
	DescribeImage(ctx context.Context, path, prompt, lang string) (*narrator.Narration, error)
	DescribeFrame(ctx context.Context, jpeg, prompt, lang string) (*narrator.Narration, error)
	Speak(ctx context.Context, text, voice string) error
	Voices(ctx context.Context) ([]tts.Voice, error)
}

var _ Engine = (*narrator.Engine)(nil)

// Option configures a [Server].
type Option func(*Server)

// WithHealth sets the health handler backing /healthz and /readyz. Without
// it the server reports alive and ready unconditionally.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics overrides the metrics instance used by the HTTP middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCameraDefaults sets the capture settings applied to camera sessions
// that do not override them via query parameters.
func WithCameraDefaults(c config.CaptureConfig) Option {
	return func(s *Server) { s.capture = c }
}

// Server is the Scenevox HTTP front end.
type Server struct {
	cfg     config.ServerConfig
	engine  Engine
	metrics *observe.Metrics
	health  *health.Handler
	capture config.CaptureConfig

	httpSrv *http.Server
}

// New creates a Server around engine using the given listen configuration.
func New(cfg config.ServerConfig, engine Engine, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	return s
}

// Handler builds the full route table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/describe", s.handleDescribe)
	mux.HandleFunc("POST /v1/speak", s.handleSpeak)
	mux.HandleFunc("GET /v1/voices", s.handleVoices)
	mux.HandleFunc("GET /v1/camera", s.handleCamera)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully. A nil
// return means the server stopped because ctx was done.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.TLS != nil {
			err = s.httpSrv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		errCh <- err
	}()

	slog.Info("server listening", "addr", s.cfg.ListenAddr, "tls", s.cfg.TLS != nil)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// maxUploadBytes returns the configured upload cap in bytes.
func (s *Server) maxUploadBytes() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return int64(mb) << 20
}
