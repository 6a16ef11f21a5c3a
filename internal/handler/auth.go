package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/server/authctx"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	LoginStaff(ctx context.Context, in service.StaffLoginInput) (*service.AuthResult, error)
	LoginWithGoogle(ctx context.Context, in service.GoogleLoginInput) (*service.AuthResult, error)
	Refresh(ctx context.Context, in service.RefreshInput) (*service.AuthResult, error)
}

type AuthHandler struct {
	Service Authenticator
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/staff", h.loginStaff)
	r.Post("/auth/google", h.loginGoogle)
	r.Post("/auth/refresh", h.refresh)
}

func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.me)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Login(r.Context(), service.LoginInput{
		Email:    strings.ToLower(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}
	writeAuthResponse(w, res)
}

// loginStaff is the POS terminal login by phone number and PIN.
func (h AuthHandler) loginStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone" validate:"required"`
		Pin   string `json:"pin" validate:"required,numeric,min=4"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.LoginStaff(r.Context(), service.StaffLoginInput{Phone: req.Phone, PIN: req.Pin})
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) loginGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken" validate:"required"`
		Email   string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.LoginWithGoogle(r.Context(), service.GoogleLoginInput{
		IDToken: req.IDToken,
		Email:   strings.ToLower(req.Email),
	})
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Refresh(r.Context(), service.RefreshInput{RefreshToken: req.RefreshToken})
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    strconv.FormatInt(user.ID, 10),
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
	})
}

func writeAuthFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	default:
		writeDomainError(w, r, err)
	}
}

func writeAuthResponse(w http.ResponseWriter, res *service.AuthResult) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        res.AccessToken,
		"refreshToken": res.RefreshToken,
		"expiresAt":    res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":         userPayload(res.User),
	})
}
