package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
)

// Staff is implemented by service.UserService.
type Staff interface {
	List(ctx context.Context, includeInactive bool) ([]domain.User, error)
	Barbers(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, in service.SaveUserInput) (*domain.User, error)
	Update(ctx context.Context, in service.SaveUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type UserHandler struct {
	Service Staff
}

func (h UserHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/public/barbers", h.publicBarbers)
}

func (h UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/barbers", h.barbers)
}

func (h UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users", h.create)
	r.Put("/users/{id}", h.update)
	r.Delete("/users/{id}", h.delete)
}

type userRequest struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone"`
	Role            string   `json:"role" validate:"required,oneof=admin cashier barber"`
	Password        string   `json:"password" validate:"omitempty,min=6"`
	Pin             string   `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
	CommissionType  *string  `json:"commissionType" validate:"omitempty,oneof=percentage flat"`
	CommissionValue *float64 `json:"commissionValue"`
	Active          *bool    `json:"active"`
}

func (req userRequest) input(id int64) service.SaveUserInput {
	in := service.SaveUserInput{
		ID:              id,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Role:            domain.UserRole(req.Role),
		Password:        req.Password,
		PIN:             req.Pin,
		CommissionValue: req.CommissionValue,
		Active:          req.Active,
	}
	if req.CommissionType != nil {
		ct := domain.CommissionType(*req.CommissionType)
		in.CommissionType = &ct
	}
	return in
}

func (h UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context(), r.URL.Query().Get("includeInactive") == "true")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, userPayload(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h UserHandler) barbers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Barbers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, userPayload(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// publicBarbers exposes only what the booking page needs.
func (h UserHandler) publicBarbers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Barbers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, map[string]any{
			"id":   strconv.FormatInt(u.ID, 10),
			"name": u.Name,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Service.Create(r.Context(), req.input(0))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userPayload(*u))
}

func (h UserHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Service.Update(r.Context(), req.input(id))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload(*u))
}

func (h UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func userPayload(u domain.User) map[string]any {
	out := map[string]any{
		"id":       strconv.FormatInt(u.ID, 10),
		"name":     u.Name,
		"email":    u.Email,
		"phone":    u.Phone,
		"role":     string(u.Role),
		"isGoogle": u.IsGoogle,
		"active":   u.Active,
		"hasPin":   u.PinHash != nil,
	}
	if u.CommissionType != nil {
		out["commissionType"] = string(*u.CommissionType)
	}
	if u.CommissionValue != nil {
		out["commissionValue"] = *u.CommissionValue
	}
	return out
}
