package authctx

import (
	"context"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type contextKey string

const userContextKey contextKey = "currentUser"

type CurrentUser struct {
	ID    int64
	Email string
	Name  string
	Role  domain.UserRole
}

// Actor is the label written to audit entries.
func (u CurrentUser) Actor() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Name
}

func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func FromContext(ctx context.Context) *CurrentUser {
	val, ok := ctx.Value(userContextKey).(CurrentUser)
	if !ok {
		return nil
	}
	return &val
}
