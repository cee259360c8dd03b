// Package server exposes the chat service over HTTP.
//
// Routes:
//
//	POST /chat         {"query": "..."} → answer, audio URL, verses
//	GET  /tts/{file}   the audio artifact "<id>.mp3"
//	GET  /healthz      liveness
//	GET  /readyz       readiness
//	GET  /metrics      Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teja-palleti/Yesu-Mitra/internal/artifact"
	"github.com/teja-palleti/Yesu-Mitra/internal/chat"
	"github.com/teja-palleti/Yesu-Mitra/internal/health"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
)

const (
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
	defaultMaxBodyBytes      = 64 << 10
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, query string) (*chat.Response, error)
}

// AudioStore opens audio artifacts by ID.
type AudioStore interface {
	Open(id string) (*artifact.Reader, error)
}

var (
	_ Asker      = (*chat.Service)(nil)
	_ AudioStore = (*artifact.Manager)(nil)
)

// Config configures a [Server].
type Config struct {
	// Addr is the TCP listen address, e.g. ":5000".
	Addr string

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps the /chat request body. Default: 64 KiB.
	MaxBodyBytes int64
}

// Option is a functional option for [New].
type Option func(*Server)

// WithHealth mounts /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the metrics sink of the request middleware. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler replaces the /metrics handler. Defaults to
// promhttp.Handler, which serves the default Prometheus registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// Server is the HTTP front end.
type Server struct {
	cfg            Config
	asker          Asker
	audio          AudioStore
	health         *health.Handler
	metrics        *observe.Metrics
	metricsHandler http.Handler
	handler        http.Handler
}

// New builds a Server. audio may be nil when synthesis is disabled; /tts then
// always answers 404.
func New(cfg Config, asker Asker, audio AudioStore, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:   cfg,
		asker: asker,
		audio: audio,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	s.handler = observe.Middleware(s.metrics)(s.routes())
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /tts/{file}", s.handleAudio)
	mux.Handle("GET /metrics", s.metricsHandler)
	if s.health != nil {
		s.health.Register(mux)
	}
	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on cfg.Addr and serves until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %q: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.Run] on an existing listener. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}
