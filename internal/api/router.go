package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// System metrics
		r.Get("/metrics", s.handleMetrics)

		// Pin state (read-only; commands go through the socket or MQTT)
		r.Route("/pins", func(r chi.Router) {
			r.Get("/", s.handleListPins)
			r.Get("/{pin}", s.handleGetPin)
		})

		// Command journal
		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/purge", s.handlePurgeEvents)
		})

		// WebSocket event feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
//
// A daemon running without a hardware backend still reports "ok" — the
// transports are serving — but flags itself as degraded so monitoring can
// tell the difference.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"status":   "ok",
		"version":  s.version,
		"degraded": s.registry.Degraded(),
	}
	if name := s.registry.BackendName(); name != "" {
		payload["backend"] = name
	}
	writeJSON(w, http.StatusOK, payload)
}
