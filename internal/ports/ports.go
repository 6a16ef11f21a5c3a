package ports

import (
	"context"
	"errors"
	"time"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Notifier delivers a text message to a phone number (WhatsApp).
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// ProofStorage stores an uploaded payment proof and returns its public URL.
type ProofStorage interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Locker hands out short-lived exclusive leases keyed by name.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock; Release is safe to call once.
type Lease interface {
	Release(ctx context.Context) error
}

// ErrLockNotObtained is returned by Locker when another holder owns the key.
var ErrLockNotObtained = errors.New("lock not obtained")
