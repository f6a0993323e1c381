// Package server wires the chat gateway together and runs its HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
	"grokgate/pkg/evidence/recorder"
	"grokgate/pkg/evidence/retention"
	"grokgate/pkg/evidence/storage"
	"grokgate/pkg/providers"
	"grokgate/pkg/proxy/handlers"
	"grokgate/pkg/proxy/middleware"
	"grokgate/pkg/telemetry/health"
	"grokgate/pkg/telemetry/metrics"
	"grokgate/pkg/telemetry/tracing"
)

// Server is the gateway HTTP server. It owns the completion source's
// supporting components: metrics, tracing, evidence and health checks.
type Server struct {
	config  *config.Config
	source  providers.CompletionSource
	version health.VersionInfo
	logger  *slog.Logger

	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	store    evidence.Storage
	recorder *recorder.Recorder
	pruner   *retention.Pruner
	checker  *health.Checker
	handler  http.Handler

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option customizes a Server.
type Option func(*Server)

// WithTracer replaces the tracer built from configuration.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithMetrics replaces the collector built from configuration.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithEvidenceStorage replaces the evidence backend built from
// configuration. It is used only when evidence is enabled.
func WithEvidenceStorage(store evidence.Storage) Option {
	return func(s *Server) { s.store = store }
}

// WithVersion sets the build information served at /version.
func WithVersion(info health.VersionInfo) Option {
	return func(s *Server) { s.version = info }
}

// New builds a server for cfg streaming from source. Components not
// supplied through options are built from cfg.
func New(ctx context.Context, cfg *config.Config, source providers.CompletionSource, opts ...Option) (*Server, error) {
	s := &Server{
		config:  cfg,
		source:  source,
		version: health.NewVersionInfo("dev", "", ""),
		logger:  slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	}
	if s.tracer == nil {
		tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		s.tracer = tracer
	}

	if cfg.Evidence.Enabled {
		if err := s.setupEvidence(); err != nil {
			_ = s.tracer.Shutdown(ctx)
			return nil, err
		}
	}

	s.setupHealth()
	s.handler = s.setupRoutes()

	return s, nil
}

func (s *Server) setupEvidence() error {
	if s.store == nil {
		store, err := storage.New(s.config.Evidence)
		if err != nil {
			return fmt.Errorf("failed to open evidence storage: %w", err)
		}
		s.store = store
	}

	recCfg := recorder.ConfigFrom(s.config.Evidence)
	recCfg.OnDrop = s.metrics.RecordEvidenceDropped
	s.recorder = recorder.NewRecorder(s.store, recCfg)
	s.pruner = retention.NewPruner(s.store, retention.ConfigFrom(s.config.Evidence.Retention))

	s.logger.Info("evidence recording enabled",
		"backend", s.config.Evidence.Backend,
		"retention_days", s.config.Evidence.Retention.Days,
	)
	return nil
}

// setupHealth registers the readiness checks.
func (s *Server) setupHealth() {
	s.checker = health.New(0)

	upstream := s.config.Upstream
	s.checker.RegisterCheck("upstream", func(ctx context.Context) error {
		if upstream.RequiresAPIKey() && !upstream.HasAPIKey() {
			return errors.New(handlers.MissingAPIKeyDetail)
		}
		return nil
	})

	if s.store != nil {
		store := s.store
		s.checker.RegisterCheck("evidence", func(ctx context.Context) error {
			if p, ok := store.(interface{ Ping(context.Context) error }); ok {
				return p.Ping(ctx)
			}
			_, err := store.Count(ctx, &evidence.Query{})
			return err
		})
	}
}

// setupRoutes builds the router and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	// Outermost first.
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.NewCORSConfig(s.config.Server.CORS)))
	r.Use(tracing.HTTPMiddleware)

	chat := handlers.NewChatHandler(s.config.Upstream, s.source)
	chat.Metrics = s.metrics
	chat.Tracer = s.tracer
	chat.Recorder = s.recorder

	r.Method(http.MethodPost, "/api/chat", chat)

	r.Get("/health", s.checker.LivenessHandler())
	r.Head("/health", s.checker.LivenessHandler())
	r.Get("/ready", s.checker.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.version))

	if s.config.Telemetry.Metrics.Enabled {
		r.Method(http.MethodGet, s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	return r
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.ListenAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns the first serve or shutdown error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true

	srvCfg := s.config.Server
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if s.pruner != nil {
		if err := s.pruner.Start(ctx); err != nil {
			s.logger.Error("failed to start retention scheduler", "error", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			"address", ln.Addr().String(),
			"backend", s.source.Name(),
			"metrics", s.config.Telemetry.Metrics.Enabled,
			"tracing", s.tracer.Enabled(),
			"evidence", s.recorder != nil,
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown stops accepting requests, waits up to ShutdownTimeout for
// in-flight relays, then flushes evidence and traces. It is safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		httpServer := s.httpServer
		s.isRunning = false
		s.mu.Unlock()

		timeout := s.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if httpServer != nil {
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
				// Streams still open after the grace period are cut.
				_ = httpServer.Close()
			}
		}

		if s.pruner != nil {
			s.pruner.Stop()
		}
		if s.recorder != nil {
			if err := s.recorder.Close(); err != nil {
				errs = append(errs, fmt.Errorf("evidence recorder close error: %w", err))
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("evidence storage close error: %w", err))
			}
		}
		if err := s.tracer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
		}

		s.logger.Info("gateway server stopped")
	})

	return errors.Join(errs...)
}

// IsRunning reports whether Serve is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
