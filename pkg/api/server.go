package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deckhand-io/deckhand/pkg/hub"
	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/metrics"
	"github.com/deckhand-io/deckhand/pkg/monitor"
	"github.com/deckhand-io/deckhand/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server exposes the dashboard's HTTP API and SSE push channel. It is
// constructed with explicit references to the façade and hub; there is
// no ambient global lookup.
type Server struct {
	svc    *service.Service
	hub    *hub.Hub
	source monitor.Source
	http   *http.Server
	logger zerolog.Logger
}

// NewServer creates a new API server
func NewServer(svc *service.Service, h *hub.Hub, source monitor.Source) *Server {
	return &Server{
		svc:    svc,
		hub:    h,
		source: source,
		logger: log.WithComponent("api"),
	}
}

// Router builds the HTTP route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/deploy", s.handleDeploy)
		r.Post("/deploy/{jobID}/rerun", s.handleRerun)
		r.Get("/deployment-status/{jobID}", s.handleStatus)
		r.Get("/logs/{jobID}", s.handleLogs)
		r.Post("/logs/stream/{jobID}", s.handleStreamLogs)
		r.Get("/deployments/recent", s.handleHistory)
		r.Get("/deployment-metrics", s.handleDeploymentMetrics)
		r.Get("/containers", s.handleContainers)
		r.Get("/system/stats", s.handleSystemStats)
		r.Get("/health", s.handleHealth)
		r.Post("/notifications", s.handleNotify)
		r.Post("/monitoring/start", s.handleStartMonitoring)
		r.Post("/monitoring/stop", s.handleStopMonitoring)

		r.Get("/events", s.handleEvents)
		r.Post("/events/{connID}/rooms/{jobID}", s.handleJoinRoom)
		r.Delete("/events/{connID}/rooms/{jobID}", s.handleLeaveRoom)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// Start starts the HTTP server and blocks until it exits
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
