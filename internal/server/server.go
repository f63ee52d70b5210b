/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package server exposes the REST API over the rule snapshot and the
// transform store.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/suriview/suriview/internal/metrics"
	"github.com/suriview/suriview/internal/rule"
	"github.com/suriview/suriview/internal/transform"
)

// Backend is what the API needs from the service: snapshot access,
// reloads and the transform store.
type Backend interface {
	Rules() []rule.Rule
	RuleBySID(sid int) (rule.Rule, bool)
	Generation() uint64
	LoadedAt() time.Time
	Reload(ctx context.Context) error
	Transforms() *transform.Store
	Audit() *slog.Logger
}

type Server struct {
	backend Backend
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(backend Backend, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{backend: backend, metrics: m, logger: logger}
}

// Router builds the API mux. Route patterns use the method-and-path
// form so the mux rejects wrong methods with 405 on its own.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler(nil))

	mux.HandleFunc("GET /api/rules", s.instrument("/api/rules", s.handleListRules))
	mux.HandleFunc("GET /api/rules/{sid}", s.instrument("/api/rules/{sid}", s.handleGetRule))
	mux.HandleFunc("GET /api/stats", s.instrument("/api/stats", s.handleStats))
	mux.HandleFunc("POST /api/reload", s.instrument("/api/reload", s.handleReload))

	mux.HandleFunc("GET /api/transforms", s.instrument("/api/transforms", s.handleListTransforms))
	mux.HandleFunc("POST /api/transforms", s.instrument("/api/transforms", s.handleCreateTransform))
	mux.HandleFunc("GET /api/transforms/{id}", s.instrument("/api/transforms/{id}", s.handleGetTransform))
	mux.HandleFunc("PUT /api/transforms/{id}", s.instrument("/api/transforms/{id}", s.handleUpdateTransform))
	mux.HandleFunc("DELETE /api/transforms/{id}", s.instrument("/api/transforms/{id}", s.handleDeleteTransform))
	mux.HandleFunc("POST /api/transforms/{id}/enable", s.instrument("/api/transforms/{id}/enable", s.handleEnableTransform))
	mux.HandleFunc("POST /api/transforms/{id}/disable", s.instrument("/api/transforms/{id}/disable", s.handleDisableTransform))
	mux.HandleFunc("POST /api/transforms/{id}/dry-run", s.instrument("/api/transforms/{id}/dry-run", s.handleDryRunTransform))
	mux.HandleFunc("POST /api/transforms/test", s.instrument("/api/transforms/test", s.handleTestTransform))

	return mux
}

// instrument wraps a handler with request counting and timing under a
// fixed route label.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		s.metrics.ObserveRequest(route, sw.code, time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.backend.Generation(),
		"loaded_at":  s.backend.LoadedAt().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response.", "error", err)
	}
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
