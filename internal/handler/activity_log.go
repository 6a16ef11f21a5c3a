package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
	"github.com/nicolaananda/barber-pos-sub000/internal/server/authctx"
)

// ActivityLogHandler exposes the audit trail. Entries are written by services
// (for example transaction corrections); admins may add manual notes.
type ActivityLogHandler struct {
	Repo repository.ActivityLogRepository
}

func (h ActivityLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/activity-logs", h.list)
	r.Post("/activity-logs", h.create)
}

func (h ActivityLogHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Title   string `json:"title" validate:"required"`
		Message string `json:"message" validate:"required"`
		Type    string `json:"type" validate:"omitempty,oneof=info warning error"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	typ := domain.LogInfo
	if req.Type != "" {
		typ = domain.ActivityLogType(req.Type)
	}
	id, err := h.Repo.Create(r.Context(), repository.CreateActivityLogInput{
		Title:      req.Title,
		Message:    req.Message,
		Actor:      user.Actor(),
		Type:       typ,
		EntityType: "note",
		Timestamp:  time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": strconv.FormatInt(id, 10)})
}

func (h ActivityLogHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), r.URL.Query().Get("entityType"), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, l := range items {
		entry := map[string]any{
			"id":         strconv.FormatInt(l.ID, 10),
			"title":      l.Title,
			"message":    l.Message,
			"actor":      l.Actor,
			"type":       string(l.Type),
			"entityType": l.EntityType,
			"timestamp":  l.LoggedAt.Format(time.RFC3339),
		}
		if l.EntityID != nil {
			entry["entityId"] = strconv.FormatInt(*l.EntityID, 10)
		}
		if l.OldValue != nil {
			entry["oldValue"] = rawJSON(*l.OldValue)
		}
		if l.NewValue != nil {
			entry["newValue"] = rawJSON(*l.NewValue)
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}
