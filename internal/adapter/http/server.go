package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/couchcryptid/pfas-dashboard-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var validate = validator.New()

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints. All dashboard routes read the current snapshot from the store;
// they never mutate it.
type Server struct {
	httpServer *http.Server
	store      *dataset.Store
	units      domain.UnitTable
	ranking    domain.Ranking
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(
	addr string,
	store *dataset.Store,
	units domain.UnitTable,
	ranking domain.Ranking,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		units:   units,
		ranking: ranking,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/options", s.handleOptions)
	mux.HandleFunc("GET /api/v1/measurements", s.handleMeasurements)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/charts/locations", s.handleLocationsChart)
	mux.HandleFunc("GET /api/v1/charts/timeseries", s.handleTimeseriesChart)
	mux.HandleFunc("GET /api/v1/timeseries/options", s.handleTimeseriesOptions)
	mux.HandleFunc("GET /api/v1/export", s.handleExport)

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

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.store.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "dataset not loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// snapshot returns the current snapshot, or writes a 503 and returns nil
// when no dataset has been loaded yet.
func (s *Server) snapshot(w http.ResponseWriter) *dataset.Snapshot {
	snap := s.store.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
	}
	return snap
}

// observeView records one dashboard view request. state distinguishes the
// informational outcomes (empty_selection, multiple_substances, ...) from
// plain ok and from rejected requests.
func (s *Server) observeView(view, state string, start time.Time) {
	s.metrics.ViewDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	s.metrics.ViewRequests.WithLabelValues(view, state).Inc()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
