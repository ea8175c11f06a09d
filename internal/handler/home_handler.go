package handlers

import (
	"context"
	"net/http"
	"time"
)

func HomeHandler(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{
		"service": "ignist",
		"status":  "running",
	}, http.StatusOK)
}

// HealthHandler pings the document store.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Health.Ping(ctx); err != nil {
		h.Logger.Warn(r.Context(), "health check failed", "error", err)
		WriteError(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}

	writeSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}
