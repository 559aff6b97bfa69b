package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the store and reports rate limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}
	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
