package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/phone"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// UserService manages staff accounts: admins, cashiers and barbers.
type UserService struct {
	Users UserStore
}

type SaveUserInput struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Role            domain.UserRole
	Password        string
	PIN             string
	CommissionType  *domain.CommissionType
	CommissionValue *float64
	Active          *bool
}

func (s UserService) List(ctx context.Context, includeInactive bool) ([]domain.User, error) {
	users, err := s.Users.List(ctx, includeInactive)
	if err != nil {
		return nil, domain.PersistenceError("list users", err)
	}
	return users, nil
}

// Barbers lists active staff who can take customers.
func (s UserService) Barbers(ctx context.Context) ([]domain.User, error) {
	users, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleBarber {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s UserService) Create(ctx context.Context, in SaveUserInput) (*domain.User, error) {
	params, err := s.params(in)
	if err != nil {
		return nil, err
	}
	if params.PasswordHash == nil && params.PinHash == nil {
		return nil, domain.ValidationError("password or pin is required")
	}
	params.Active = in.Active == nil || *in.Active
	u, err := s.Users.Create(ctx, params)
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, domain.ConflictError("email or phone already used")
		}
		return nil, domain.PersistenceError("create user", err)
	}
	return u, nil
}

func (s UserService) Update(ctx context.Context, in SaveUserInput) (*domain.User, error) {
	existing, err := s.Users.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("User not found")
		}
		return nil, domain.PersistenceError("load user", err)
	}
	params, err := s.params(in)
	if err != nil {
		return nil, err
	}
	params.ID = existing.ID
	params.IsGoogle = existing.IsGoogle
	params.Active = existing.Active
	if in.Active != nil {
		params.Active = *in.Active
	}
	u, err := s.Users.Update(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFoundError("User not found")
		case repository.IsDuplicate(err):
			return nil, domain.ConflictError("email or phone already used")
		}
		return nil, domain.PersistenceError("update user", err)
	}
	return u, nil
}

func (s UserService) Delete(ctx context.Context, id int64) error {
	if err := s.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundError("User not found")
		}
		return domain.PersistenceError("delete user", err)
	}
	return nil
}

func (s UserService) params(in SaveUserInput) (repository.SaveUserParams, error) {
	p := repository.SaveUserParams{
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Role:            in.Role,
		CommissionType:  in.CommissionType,
		CommissionValue: in.CommissionValue,
	}
	if p.Name == "" {
		return p, domain.ValidationError("name is required")
	}
	if !p.Role.Valid() {
		return p, domain.ValidationError("role must be admin, cashier or barber")
	}
	if raw := strings.TrimSpace(in.Phone); raw != "" {
		normalized, err := phone.Normalize(raw)
		if err != nil {
			return p, domain.ValidationError("invalid phone")
		}
		p.Phone = normalized
	}
	if p.CommissionType != nil {
		if !p.CommissionType.Valid() {
			return p, domain.ValidationError("commissionType must be percentage or flat")
		}
		if p.CommissionValue == nil || *p.CommissionValue < 0 {
			return p, domain.ValidationError("commissionValue must be a non-negative number")
		}
		if *p.CommissionType == domain.CommissionPercentage && *p.CommissionValue > 100 {
			return p, domain.ValidationError("percentage commission must not exceed 100")
		}
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return p, domain.PersistenceError("hash password", err)
		}
		p.PasswordHash = ptr(string(hash))
	}
	if in.PIN != "" {
		if len(in.PIN) < 4 {
			return p, domain.ValidationError("pin must have at least 4 digits")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.PIN), bcrypt.DefaultCost)
		if err != nil {
			return p, domain.PersistenceError("hash pin", err)
		}
		p.PinHash = ptr(string(hash))
	}
	return p, nil
}
