package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// Outbox is implemented by *service.OutboxService.
type Outbox interface {
	Get(ctx context.Context, id int64) (*domain.OutboxMessage, error)
	List(ctx context.Context, status string, limit int) ([]domain.OutboxMessage, error)
	DispatchOnce(ctx context.Context) (int, error)
}

type NotificationHandler struct {
	Outbox Outbox
}

func (h NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/outbox", h.list)
	r.Get("/notifications/outbox/{id}", h.get)
	r.Post("/notifications/outbox/dispatch", h.dispatch)
}

func (h NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch domain.OutboxStatus(status) {
	case "", domain.OutboxPending, domain.OutboxSent, domain.OutboxFailed:
	default:
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid status")
		return
	}
	items, err := h.Outbox.List(r.Context(), status, queryInt(r, "limit", 100))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, m := range items {
		resp = append(resp, outboxPayload(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h NotificationHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.Outbox.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outboxPayload(*m))
}

// dispatch runs one delivery pass without waiting for the background ticker.
func (h NotificationHandler) dispatch(w http.ResponseWriter, r *http.Request) {
	n, err := h.Outbox.DispatchOnce(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"processed": n})
}

func outboxPayload(m domain.OutboxMessage) map[string]any {
	entry := map[string]any{
		"id":            strconv.FormatInt(m.ID, 10),
		"kind":          m.Kind,
		"phone":         m.Phone,
		"message":       m.Message,
		"status":        string(m.Status),
		"attempts":      m.Attempts,
		"lastError":     m.LastError,
		"nextAttemptAt": m.NextAttemptAt.Format(time.RFC3339),
		"createdAt":     m.CreatedAt.Format(time.RFC3339),
	}
	if m.SentAt != nil {
		entry["sentAt"] = m.SentAt.Format(time.RFC3339)
	}
	return entry
}

// rawJSON embeds stored JSON text as-is, falling back to a string.
func rawJSON(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}
