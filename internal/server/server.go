// Package server exposes similarity and RTT queries over HTTP for one loaded
// snapshot. Reads run concurrently; writes take an exclusive lock.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/source"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lru"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
)

// Server holds the indexes built from a snapshot.
type Server struct {
	mu     sync.RWMutex
	engine *analysis.Engine
	rtt    *analysis.RTTIndex
	dir    *analysis.Directory
	cache  *lru.Cache[similarKey, []lsh.Match] // nil when disabled


	snap   *source.Snapshot
	cfg    config.ServerConfig
	logger *slog.Logger
	tracer trace.Tracer
	red    *observability.REDMetrics
	scrape http.Handler
}

// similarKey identifies a cached GET /v1/similar answer.
type similarKey struct {
	id        string
	threshold float64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracer sets the tracer used for server spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithMetrics records RED metrics for every request.
func WithMetrics(red *observability.REDMetrics) Option {
	return func(s *Server) { s.red = red }
}

// WithScrapeHandler mounts h at GET /metrics.
func WithScrapeHandler(h http.Handler) Option {
	return func(s *Server) { s.scrape = h }
}

// New indexes snap according to cfg.
func New(snap *source.Snapshot, cfg *config.Config, opts ...Option) (*Server, error) {
	engine, err := analysis.NewEngine(cfg.Similarity)
	if err != nil {
		return nil, fmt.Errorf("similarity engine: %w", err)
	}

	dir, err := analysis.NewDirectory(snap.Profiles, snap.Events, cfg.Bloom)
	if err != nil {
		return nil, fmt.Errorf("profile directory: %w", err)
	}

	engine.IndexProfiles(snap.Profiles)

	s := &Server{
		engine: engine,
		rtt:    analysis.NewRTTIndex(snap.Events),
		dir:    dir,
		snap:   snap,
		cfg:    cfg.Server,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: noop.NewTracerProvider().Tracer("chameleon/server"),
	}

	if cfg.Server.CacheEntries > 0 {
		s.cache, err = lru.New[similarKey, []lsh.Match](cfg.Server.CacheEntries)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Handler returns the API wrapped in tracing and RED middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.ready))
	mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /v1/similar", s.handleSimilar)
	mux.HandleFunc("POST /v1/similar/text", s.handleSimilarText)
	mux.HandleFunc("PUT /v1/documents/{id}", s.handlePutDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /v1/profiles/{key}", s.handleProfile)
	mux.HandleFunc("GET /v1/usernames", s.handleUsernames)
	mux.HandleFunc("GET /v1/rtt/range", s.handleRTTRange)
	mux.HandleFunc("GET /v1/rtt/summary", s.handleRTTSummary)
	mux.HandleFunc("POST /v1/rtt/update", s.handleRTTUpdate)

	if s.scrape != nil {
		mux.Handle("GET /metrics", s.scrape)
	}

	var h http.Handler = mux
	if s.red != nil {
		h = observability.REDMiddleware(s.red, h)
	}

	return observability.HTTPMiddleware(s.tracer, s.logRequests(h))
}

func (s *Server) ready(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.engine == nil || s.rtt == nil {
		return errNotReady
	}

	return nil
}

var errNotReady = errors.New("indexes not built")

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()
		next.ServeHTTP(rw, hr.WithContext(observability.WithLogger(hr.Context(), s.logger)))
		s.logger.DebugContext(hr.Context(), "request",
			"method", hr.Method, "path", hr.URL.Path, "duration", time.Since(start))
	})
}

// CacheStats reports the similarity query cache counters. The zero value is
// returned when caching is disabled.
func (s *Server) CacheStats() lru.Stats {
	if s.cache == nil {
		return lru.Stats{}
	}

	return s.cache.Stats()
}

// invalidate drops cached answers. Callers hold the write lock.
func (s *Server) invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.logger.InfoContext(ctx, "server shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
