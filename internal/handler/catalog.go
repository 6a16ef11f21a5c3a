package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// CatalogHandler manages the service catalog. Deleting only deactivates, so
// historical invoices and payroll still resolve the service.
type CatalogHandler struct {
	Repo repository.ServiceRepository
}

func (h CatalogHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/public/services", h.listActive)
}

func (h CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.list)
}

func (h CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/services", h.create)
	r.Put("/services/{id}", h.update)
	r.Delete("/services/{id}", h.delete)
}

type servicePayload struct {
	Name            string  `json:"name" validate:"required"`
	Price           int64   `json:"price" validate:"gte=0"`
	CommissionType  string  `json:"commissionType" validate:"required,oneof=percentage flat"`
	CommissionValue float64 `json:"commissionValue" validate:"gte=0"`
	IsActive        *bool   `json:"isActive"`
}

func (p servicePayload) input(id int64) (repository.SaveServiceInput, bool) {
	if p.CommissionType == string(domain.CommissionPercentage) && p.CommissionValue > 100 {
		return repository.SaveServiceInput{}, false
	}
	return repository.SaveServiceInput{
		ID:              id,
		Name:            strings.TrimSpace(p.Name),
		Price:           p.Price,
		CommissionType:  domain.CommissionType(p.CommissionType),
		CommissionValue: p.CommissionValue,
		IsActive:        p.IsActive == nil || *p.IsActive,
	}, true
}

func (h CatalogHandler) listActive(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, false)
}

func (h CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, r.URL.Query().Get("includeInactive") == "true")
}

func (h CatalogHandler) respondList(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	items, err := h.Repo.List(r.Context(), includeInactive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, catalogPayload(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req servicePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.input(0)
	if !ok {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "percentage commission must not exceed 100")
		return
	}
	saved, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeErrorKind(w, http.StatusConflict, domain.KindConflict, "service name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, catalogPayload(*saved))
}

func (h CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req servicePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := req.input(id)
	if !ok {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "percentage commission must not exceed 100")
		return
	}
	saved, err := h.Repo.Update(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeErrorKind(w, http.StatusNotFound, domain.KindNotFound, "Service not found")
		case repository.IsDuplicate(err):
			writeErrorKind(w, http.StatusConflict, domain.KindConflict, "service name already exists")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, catalogPayload(*saved))
}

func (h CatalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorKind(w, http.StatusNotFound, domain.KindNotFound, "Service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func catalogPayload(s domain.Service) map[string]any {
	return map[string]any{
		"id":              strconv.FormatInt(s.ID, 10),
		"name":            s.Name,
		"price":           s.Price,
		"commissionType":  string(s.CommissionType),
		"commissionValue": s.CommissionValue,
		"isActive":        s.IsActive,
	}
}
