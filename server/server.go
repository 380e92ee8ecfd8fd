// Package server provides the HTTP server for the procsim process simulation backend.
//
// The server exposes a JSON API over a process catalog and its append-only
// activity log. Every route is served both at the root and under /api.
//
// # Endpoints
//
//   - GET / - Liveness message
//   - GET /process - The default process definition, seeded on first read
//   - POST /upload - Records an upload (multipart form)
//   - POST /assign - Records a reviewer assignment
//   - POST /action - Records a download, review, decision or note
//   - GET /logs - Activity for the default process, newest first
//   - GET /seed - Seeds the default process and illustrative activity
//   - GET /health - Store diagnostics (also served as /test)
//   - GET /stats - Per-stage event counts from the stats reporter
//   - GET /config - Current configuration as YAML, credentials redacted
//   - GET /metrics - Prometheus exposition, when metrics mode is scrape
//
// # Example
//
//	srv, err := server.New(ctx, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/config"
	"github.com/nomis52/procsim/metrics"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/seed"
	"github.com/nomis52/procsim/server/cron"
	"github.com/nomis52/procsim/server/handlers"
	"github.com/nomis52/procsim/statsreporter"
	"github.com/nomis52/procsim/store"
)

const defaultShutdownTimeout = 5 * time.Second

// Server is the HTTP server for the procsim API.
type Server struct {
	cfg    config.Config
	logger *slog.Logger

	store          store.Store
	registry       metrics.Registry
	metricsHandler http.Handler

	catalog      *process.Catalog
	log          *activity.Log
	seeder       *seed.Seeder
	stats        *statsreporter.StatsReporter
	statsTrigger *cron.CronTrigger
	requests     metrics.CounterVec

	router     chi.Router
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithStore uses st instead of opening the store named in the config.
func WithStore(st store.Store) Option {
	return func(s *Server) error {
		s.store = st
		return nil
	}
}

// WithMetricsRegistry uses registry instead of the one selected by the config.
// handler serves the scrape endpoint and may be nil.
func WithMetricsRegistry(registry metrics.Registry, handler http.Handler) Option {
	return func(s *Server) error {
		s.registry = registry
		s.metricsHandler = handler
		return nil
	}
}

// New creates a Server from cfg and initializes all dependencies.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		registry, handler, err := metrics.New(cfg.Monitoring, logger)
		if err != nil {
			return nil, fmt.Errorf("creating metrics registry: %w", err)
		}
		s.registry, s.metricsHandler = registry, handler
	}

	definition, err := process.LoadDefinition(cfg.Process.Definition, cfg.Process.Key)
	if err != nil {
		return nil, err
	}

	if s.store == nil {
		st, err := store.Open(ctx, cfg.Store, logger)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		s.store = st
	}

	s.catalog = process.NewCatalog(s.store, definition, logger)
	s.log = activity.NewLog(s.store, logger, activity.WithMetricsRegistry(s.registry))
	s.seeder = seed.New(s.catalog, s.log, logger)

	s.stats, err = statsreporter.New(s.catalog, s.log, s.registry, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Monitoring.StatsSchedule != "" {
		s.statsTrigger, err = cron.NewCronTrigger("stats", cfg.Monitoring.StatsSchedule, s.stats.Refresh, logger)
		if err != nil {
			return nil, fmt.Errorf("creating stats trigger: %w", err)
		}
	}

	s.requests, err = s.registry.NewCounterVec(httpRequestsOpts())
	if err != nil {
		return nil, fmt.Errorf("registering request counter: %w", err)
	}

	s.router = s.newRouter()
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return &s.cfg
}

// Stats returns the last per-stage event counts.
func (s *Server) Stats() (map[string]int, time.Time) {
	return s.stats.Stats()
}

// NextRefresh returns the next scheduled stats refresh, or nil if no schedule is configured.
func (s *Server) NextRefresh() *time.Time {
	if s.statsTrigger == nil {
		return nil
	}
	next := s.statsTrigger.NextRun()
	return &next
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store and stops the metrics sender, if any.
func (s *Server) Close() error {
	if c, ok := s.registry.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close metrics registry", "error", err)
		}
	}
	return s.store.Close()
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// The stats reporter is refreshed once and then on its cron schedule.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listener.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Listener.ReadTimeout,
		WriteTimeout: s.cfg.Listener.WriteTimeout,
	}

	if err := s.stats.Refresh(ctx); err != nil {
		s.logger.Warn("initial stats refresh failed", "error", err)
	}
	if s.statsTrigger != nil {
		s.logger.Info("starting stats trigger",
			"next_run", s.statsTrigger.NextRun(),
		)
		s.statsTrigger.Start(ctx)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.cfg.Listener.Addr,
			"store", s.store.Driver(),
			"process_key", s.catalog.DefaultKey(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or server error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)

	r.NotFound(handlers.HandleNotFound)
	r.MethodNotAllowed(handlers.HandleMethodNotAllowed)

	s.registerRoutes(r)
	r.Route("/api", s.registerRoutes)

	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}
	return r
}

func (s *Server) registerRoutes(r chi.Router) {
	key := s.catalog.DefaultKey()
	health := handlers.NewHealthHandler(s.logger, s.store)

	r.Get("/", handlers.HandleRoot)
	r.Method(http.MethodGet, "/process", handlers.NewProcessHandler(s.logger, s.catalog))
	r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(s.logger, s.log, key, s.cfg.Upload.MaxBytes))
	r.Method(http.MethodPost, "/assign", handlers.NewAssignHandler(s.logger, s.log, key))
	r.Method(http.MethodPost, "/action", handlers.NewActionHandler(s.logger, s.log, key))
	r.Method(http.MethodGet, "/logs", handlers.NewLogsHandler(s.logger, s.log, key))
	r.Method(http.MethodGet, "/seed", handlers.NewSeedHandler(s.logger, s.seeder))
	r.Method(http.MethodGet, "/health", health)
	r.Method(http.MethodGet, "/test", health)
	r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(s, key))
	r.Method(http.MethodGet, "/config", handlers.NewConfigHandler(s))
}
