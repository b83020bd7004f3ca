// Package server hosts the HTTP surface of the tutoring backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/akshay-abraham/lyra/internal/chat"
	"github.com/akshay-abraham/lyra/internal/config"
	"github.com/akshay-abraham/lyra/internal/llm/configbuilder"
	"github.com/akshay-abraham/lyra/internal/notify"
	"github.com/akshay-abraham/lyra/internal/observability"
	"github.com/akshay-abraham/lyra/internal/settings"
	"github.com/akshay-abraham/lyra/internal/store"
	"github.com/akshay-abraham/lyra/internal/tutor"
)

// Server wires the store, router, and orchestrator behind the REST API.
type Server struct {
	cfg          *config.Config
	logger       *zap.Logger
	repo         store.Repository
	orchestrator *chat.Orchestrator
	metrics      *observability.Metrics
	hub          *notify.Hub
}

// NewServer constructs a daemon instance and its collaborators.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	repo, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics := observability.NewMetrics()
	hub := notify.NewHub()
	router := tutor.NewRouter(registry, logger, metrics)
	resolver := settings.NewResolver(repo, logger)
	orchestrator := chat.NewOrchestrator(repo, router, resolver,
		chat.WordClampTitler{MaxLen: cfg.Chat.MaxTitleLength}, hub, logger, metrics)

	return &Server{
		cfg:          cfg,
		logger:       logger,
		repo:         repo,
		orchestrator: orchestrator,
		metrics:      metrics,
		hub:          hub,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// error.
func (s *Server) Run(ctx context.Context) error {
	defer s.repo.Close()

	go s.drainNotifications(ctx)

	handler := h2c.NewHandler(s.routes(), &http2.Server{})
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting lyra daemon", zap.String("addr", s.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down lyra daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/messages", s.handleSendMessage)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{sessionID}/messages", s.handleListMessages)
	})

	return r
}

// drainNotifications forwards orchestrator notifications to the log. A real
// frontend would subscribe to the hub itself.
func (s *Server) drainNotifications(ctx context.Context) {
	ch := s.hub.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			s.logger.Info("notification",
				zap.String("level", string(n.Level)),
				zap.String("message", n.Message))
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
