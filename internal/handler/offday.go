package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// OffDayHandler manages barber days off. Bookings on an off day are refused
// by the booking service.
type OffDayHandler struct {
	Repo     repository.OffDayRepository
	Location *time.Location
	Now      func() time.Time
}

func (h OffDayHandler) RegisterRoutes(r chi.Router) {
	r.Get("/off-days", h.list)
}

func (h OffDayHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/off-days", h.create)
	r.Delete("/off-days/{id}", h.delete)
}

func (h OffDayHandler) loc() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h OffDayHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var barberID *int64
	if raw := q.Get("barberId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid barberId")
			return
		}
		barberID = &id
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	local := now().In(h.loc())
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, h.loc())
	if raw := strings.TrimSpace(q.Get("month")); raw != "" {
		m, err := time.ParseInLocation("2006-01", raw, h.loc())
		if err != nil {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid month (use YYYY-MM)")
			return
		}
		start = m
	}
	items, err := h.Repo.List(r.Context(), barberID, start, start.AddDate(0, 1, 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, o := range items {
		resp = append(resp, offDayPayload(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h OffDayHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BarberID int64  `json:"barberId" validate:"required"`
		Date     string `json:"date" validate:"required"`
		Reason   string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, h.loc())
	if err != nil {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid date")
		return
	}
	o, err := h.Repo.Create(r.Context(), req.BarberID, date, strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, repository.ErrOffDayExists) {
			writeErrorKind(w, http.StatusConflict, domain.KindConflict, "barber is already off on that date")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, offDayPayload(*o))
}

func (h OffDayHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorKind(w, http.StatusNotFound, domain.KindNotFound, "off day not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func offDayPayload(o domain.OffDay) map[string]any {
	return map[string]any{
		"id":       strconv.FormatInt(o.ID, 10),
		"barberId": strconv.FormatInt(o.BarberID, 10),
		"date":     o.Date.Format(dateLayout),
		"reason":   o.Reason,
	}
}
