package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports liveness and, when a check is configured, store reachability.
type HealthHandler struct {
	check func(ctx context.Context) error
	now   func() time.Time
}

func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{check: check, now: time.Now}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			slog.Warn("health check failed", "err", err)
			data["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, Envelope{Message: "Storage unavailable", Data: data})
			return
		}
	}
	writeOK(w, http.StatusOK, Envelope{Message: "Server is running", Data: data})
}
