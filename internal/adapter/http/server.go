// Package http exposes the service's admin endpoints: health, readiness,
// metrics and the last run summary.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/altocumulus/weather-etl/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RunReporter exposes the most recent completed run.
type RunReporter interface {
	LastRun() (pipeline.Summary, bool)
}

// Pipeline is the combination the admin server needs from the ETL pipeline.
type Pipeline interface {
	ReadinessChecker
	RunReporter
}

// Server exposes health, readiness, metrics, and status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /statusz, and
// /metrics routes.
func NewServer(addr string, p Pipeline, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(p))
	mux.HandleFunc("GET /statusz", handleStatus(p))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleStatus(reporter RunReporter) http.HandlerFunc {
	type statusResponse struct {
		Extracted  int    `json:"extracted"`
		Skipped    int    `json:"skipped"`
		Rejected   int    `json:"rejected"`
		Inserted   int    `json:"inserted"`
		Duplicates int    `json:"duplicates"`
		Errors     int    `json:"errors"`
		Duration   string `json:"duration"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		summary, ok := reporter.LastRun()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "no completed run"})
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Extracted:  summary.Extracted,
			Skipped:    summary.Skipped,
			Rejected:   summary.Rejected.Total(),
			Inserted:   summary.Load.Inserted,
			Duplicates: summary.Load.Duplicates,
			Errors:     summary.Load.Errors,
			Duration:   summary.Duration.String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
