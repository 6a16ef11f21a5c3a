package service

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// The interfaces below are satisfied by the repository types and by the
// in-memory fakes used in tests.

type UserStore interface {
	Create(ctx context.Context, p repository.SaveUserParams) (*domain.User, error)
	Update(ctx context.Context, p repository.SaveUserParams) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, includeInactive bool) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type CatalogStore interface {
	List(ctx context.Context, includeInactive bool) ([]domain.Service, error)
	Get(ctx context.Context, id int64) (*domain.Service, error)
}

type CustomerStore interface {
	Upsert(ctx context.Context, name, phone string, countVisit bool, at time.Time) (*domain.Customer, error)
}

type TransactionStore interface {
	Create(ctx context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error)
	Update(ctx context.Context, id int64, in repository.UpdateTransactionInput) error
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error)
}

type ShiftStore interface {
	Open(ctx context.Context, openedByID int64, startCash int64) (*domain.CashShift, error)
	Get(ctx context.Context, id int64) (*domain.CashShift, error)
	Current(ctx context.Context) (*domain.CashShift, error)
	Close(ctx context.Context, id int64, actualEndCash int64, closedByID int64) (*domain.CashShift, bool, error)
	Accrue(ctx context.Context, amount int64) (bool, error)
	List(ctx context.Context, status string, limit int) ([]domain.CashShift, error)
	Summary(ctx context.Context, shift domain.CashShift) (domain.ShiftSummary, error)
}

type BookingStore interface {
	Create(ctx context.Context, in repository.CreateBookingInput) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	HasActive(ctx context.Context, barberID int64, date time.Time, slot string) (bool, error)
	TakenSlots(ctx context.Context, barberID int64, date time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
}

type OffDayStore interface {
	IsOff(ctx context.Context, barberID int64, date time.Time) (bool, error)
}

type ActivityLogStore interface {
	Create(ctx context.Context, in repository.CreateActivityLogInput) (int64, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, in repository.EnqueueInput) (*domain.OutboxMessage, error)
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string, next time.Time, giveUp bool) error
	Get(ctx context.Context, id int64) (*domain.OutboxMessage, error)
	List(ctx context.Context, status string, limit int) ([]domain.OutboxMessage, error)
}
