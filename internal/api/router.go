package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component check made by /health.
const healthCheckTimeout = 2 * time.Second

// Component health values reported by /health.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthDisabled = "disabled"
)

// healthComponents are the optional infrastructure checks, in report order.
var healthComponents = []string{"database", "mqtt", "influxdb"}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/status", s.handleStatus)
			r.Get("/devices", s.handleListDevices)
			r.Get("/audit", s.handleListAuditLogs)

			r.Get("/settings", s.handleGetSettings)
			r.With(s.requireOperator).Put("/settings", s.handlePutSettings)

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth reports liveness plus the health of each component.
// The response is always 200 while the process is serving; callers inspect
// "status" for degradation.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"bridge": s.bridge.Metrics().State.String(),
	}

	overall := healthOK
	for _, name := range healthComponents {
		checker, ok := s.checks[name]
		if !ok || checker == nil {
			components[name] = healthDisabled
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			s.logger.Debug("health check failed", "component", name, "error", err)
			components[name] = healthDegraded
			overall = healthDegraded
			continue
		}
		components[name] = healthOK
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     overall,
		"version":    s.version,
		"components": components,
	})
}

// handleStatus returns the bridge counters and the latest status events.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"bridge": s.bridge.Metrics(),
		"status": s.status.Snapshot(),
	})
}

// handleListDevices returns every leash in first-seen order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}
