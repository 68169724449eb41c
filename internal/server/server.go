package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the operator control surface over HTTP
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates the control server around the given handlers
func New(addr string, h *Handlers, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Post("/start", h.Start)
		r.Post("/stop", h.Stop)
		r.Post("/check", h.Check)
		r.Post("/clear-cache", h.ClearCache)
		r.Post("/test", h.Test)
		r.Get("/logs", h.Logs)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		logger: logger.With("component", "http_server"),
	}
}

// Run starts serving and blocks until the listener fails or the server
// is shut down.
func (s *Server) Run() error {
	s.logger.Info("control server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
