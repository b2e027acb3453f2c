// Package http exposes the dashboard API plus health, readiness, and
// metrics endpoints, and serves the dashboard's static assets.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/dashboard"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
)

// SnapshotBuilder assembles a conditions snapshot on demand.
type SnapshotBuilder interface {
	Build(ctx context.Context) (*dashboard.Snapshot, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard API over HTTP.
type Server struct {
	httpServer *http.Server
	builder    SnapshotBuilder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, health, readiness, and
// metrics routes. staticDir may be empty to skip asset serving.
func NewServer(addr string, builder SnapshotBuilder, staticDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		builder: builder,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/conditions", s.handleConditions)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	if staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(staticDir)))
	}

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.builder.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleConditions builds and returns a full snapshot. Data is fetched
// fresh per request; there is no background refresh.
func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.buildSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleEvents returns the flood-event table, optionally filtered by
// category via ?type=. This backs the event table's category selector.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var filter *domain.Category
	if q := r.URL.Query().Get("type"); q != "" {
		c, err := domain.ParseCategory(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		filter = &c
	}

	snap, ok := s.buildSnapshot(w, r)
	if !ok {
		return
	}

	events := snap.Events
	if filter != nil {
		filtered := make([]domain.FloodEvent, 0, len(events))
		for _, ev := range events {
			if ev.Type == *filter {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":   events,
		"fallback": snap.EventsFromFallback,
	})
}

// buildSnapshot runs a build and writes the error response on failure. A
// failed required section surfaces as 502 naming the section; no partial
// page is served.
func (s *Server) buildSnapshot(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := s.builder.Build(r.Context())
	if err != nil {
		s.logger.Error("snapshot build failed", "error", err)
		status := http.StatusBadGateway
		var statusErr *domain.StatusError
		if !errors.As(err, &statusErr) && r.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
