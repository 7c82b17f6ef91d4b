// Package api exposes the optional health and metrics HTTP endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves liveness and Prometheus metrics while a collection run is in
// progress.
type Server struct {
	router chi.Router
	logger *zap.Logger
}

// NewServer constructs a Server with its routes.
func NewServer(logger *zap.Logger) *Server {
	s := &Server{logger: logger}
	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr in a background goroutine. The server lives for the
// duration of the process; failures are logged, not raised.
func (s *Server) Start(addr string) {
	go func() {
		s.logger.Info("Starting metrics endpoint", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, s.router); err != nil {
			s.logger.Error("Metrics endpoint failed", zap.Error(err))
		}
	}()
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Warn("Health write failed", zap.Error(err))
	}
}
