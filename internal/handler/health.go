package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
)

// HealthHandler exposes a readiness probe. DB is required; Extra holds
// optional dependencies such as the Redis lock.
type HealthHandler struct {
	DB    ports.HealthChecker
	Extra map[string]ports.HealthChecker
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := map[string]string{"database": "ok"}
	if err := h.DB.Health(ctx); err != nil {
		status = "degraded"
		checks["database"] = err.Error()
	}
	for name, c := range h.Extra {
		checks[name] = "ok"
		if err := c.Health(ctx); err != nil {
			checks[name] = err.Error()
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeRawJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
