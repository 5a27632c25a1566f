// Package server provides the HTTP server for the conversation engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"roundtable-hq/roundtable/pkg/cachestats"
	"roundtable-hq/roundtable/pkg/config"
	"roundtable-hq/roundtable/pkg/orchestrator"
	"roundtable-hq/roundtable/pkg/server/handlers"
	"roundtable-hq/roundtable/pkg/server/middleware"
	"roundtable-hq/roundtable/pkg/snapcache"
	"roundtable-hq/roundtable/pkg/telemetry/metrics"
)

// Deps holds the engine components the server exposes over HTTP.
type Deps struct {
	// Orchestrator handles respond calls. Required.
	Orchestrator *orchestrator.Orchestrator

	// Providers lists registered provider names for the health endpoint.
	Providers handlers.ProviderLister

	// Cache is the snapshot cache behind /v1/cache. Required.
	Cache *snapcache.Cache

	// CacheEvents records hit/miss events. Optional.
	CacheEvents cachestats.Store

	// CacheAggregator answers /v1/metrics/cache. Required.
	CacheAggregator *cachestats.Aggregator

	// Collector exports Prometheus metrics. Optional.
	Collector *metrics.Collector
}

// Server is the engine's HTTP server.
type Server struct {
	config       *config.ServerConfig
	metricsCfg   *config.MetricsConfig
	deps         Deps
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the HTTP server.
func NewServer(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, deps Deps) *Server {
	return &Server{
		config:     cfg,
		metricsCfg: metricsCfg,
		deps:       deps,
	}
}

// Start starts the HTTP server and blocks until shutdown, whether from
// context cancellation, SIGINT/SIGTERM, or a listener error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("server stopped")
	})

	return shutdownErr
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/chat", handlers.NewChatHandler(s.deps.Orchestrator, s.deps.Collector))
	mux.Handle("/v1/cache", handlers.NewCacheHandler(s.deps.Cache, s.deps.CacheEvents, s.deps.Collector))
	mux.Handle("/v1/metrics/cache", handlers.NewCacheMetricsHandler(s.deps.CacheAggregator))
	mux.Handle("/healthz", handlers.NewHealthHandler(s.deps.Providers))

	if s.deps.Collector != nil && s.metricsCfg != nil &&
		(s.metricsCfg.Enabled == nil || *s.metricsCfg.Enabled) {
		mux.Handle(s.metricsCfg.Path, s.deps.Collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
