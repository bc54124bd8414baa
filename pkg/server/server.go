package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/gate"
	"keygate-hq/keygate/pkg/registry"
	"keygate-hq/keygate/pkg/usage"
)

// Server is the keygate HTTP server.
type Server struct {
	config       *config.ServerConfig
	registry     *registry.Registry
	gate         *gate.Middleware
	recorder     UsageRecorder
	usageStorage usage.Storage

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server. The recorder and usage storage may be nil
// when usage recording is disabled; the usage report endpoint then returns
// 404.
func NewServer(cfg *config.ServerConfig, reg *registry.Registry, gw *gate.Middleware, recorder UsageRecorder, usageStorage usage.Storage) *Server {
	return &Server{
		config:       cfg,
		registry:     reg,
		gate:         gw,
		recorder:     recorder,
		usageStorage: usageStorage,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until ctx is canceled, Shutdown
// is called, or the listener fails. Signal handling belongs to the caller;
// the entry point passes a signal-bound context.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      handler,
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

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
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

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Protected data plane. The gate denies before the handler runs; the
	// handler records usage for every admitted request.
	data := &dataHandler{recorder: s.recorder}
	mux.Handle("GET /api/data", s.gate.Handle(data))

	// Admin plane, throttled per remote IP.
	admin := &adminHandlers{
		registry: s.registry,
		usage:    s.usageStorage,
		logger:   slog.Default().With("component", "server.admin"),
	}
	throttle := newIPThrottle(s.config.AdminRatePerSecond, s.config.AdminBurst)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /admin/clients", admin.createClient)
	adminMux.HandleFunc("GET /admin/clients", admin.listClients)
	adminMux.HandleFunc("POST /admin/keys", admin.createKey)
	adminMux.HandleFunc("POST /admin/keys/disable", admin.disableKey)
	adminMux.HandleFunc("GET /admin/usage/{client_id}", admin.clientUsage)
	mux.Handle("/admin/", throttle.middleware(adminMux))

	// Operational routes.
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
