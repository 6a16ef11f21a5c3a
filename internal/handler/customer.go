package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// CustomerHandler is read-only: customers are created by settlements and
// confirmed bookings.
type CustomerHandler struct {
	Repo repository.CustomerRepository
}

func (h CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.list)
}

func (h CustomerHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.Search(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		var lastVisit any
		if c.LastVisit != nil {
			lastVisit = c.LastVisit.UTC().Format(time.RFC3339)
		}
		resp = append(resp, map[string]any{
			"id":          strconv.FormatInt(c.ID, 10),
			"name":        c.Name,
			"phone":       c.Phone,
			"totalVisits": c.TotalVisits,
			"lastVisit":   lastVisit,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
