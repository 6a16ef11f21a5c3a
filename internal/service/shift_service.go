package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/metrics"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// ShiftService tracks cash shifts. At most one shift is open at a time and
// settled revenue accrues into it.
type ShiftService struct {
	Store ShiftStore
	// Users resolves the closedBy id on Close; the check is skipped when nil.
	Users  UserStore
	Logger *slog.Logger
}

// ShiftClosing is the reconciliation returned when a shift closes.
type ShiftClosing struct {
	Shift        domain.CashShift
	ExpectedCash int64
	Difference   int64
}

func (s ShiftService) Open(ctx context.Context, userID int64, startCash int64) (*domain.CashShift, error) {
	if startCash < 0 {
		return nil, domain.ValidationError("openingCash must not be negative")
	}
	shift, err := s.Store.Open(ctx, userID, startCash)
	if err != nil {
		if errors.Is(err, repository.ErrShiftAlreadyOpen) {
			return nil, domain.ConflictError("A shift is already open")
		}
		return nil, domain.PersistenceError("open shift", err)
	}
	return shift, nil
}

// Close ends an open shift. reportedRevenue is the client's own tally; a
// mismatch with the accrued revenue is only logged.
func (s ShiftService) Close(ctx context.Context, id int64, actualEndCash int64, closedByID int64, reportedRevenue *int64) (*ShiftClosing, error) {
	if actualEndCash < 0 {
		return nil, domain.ValidationError("closingCash must not be negative")
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.ShiftClosed {
		return nil, domain.AlreadyClosedError("Shift already closed")
	}
	if err := s.checkCloser(ctx, closedByID); err != nil {
		return nil, err
	}

	shift, changed, err := s.Store.Close(ctx, id, actualEndCash, closedByID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Shift not found")
		}
		return nil, domain.PersistenceError("close shift", err)
	}
	if !changed {
		return nil, domain.AlreadyClosedError("Shift already closed")
	}
	if reportedRevenue != nil && *reportedRevenue != shift.TotalRevenue {
		s.logger().Warn("shift revenue mismatch",
			"shift_id", id, "accrued", shift.TotalRevenue, "reported", *reportedRevenue)
	}

	expected := shift.ExpectedCash()
	return &ShiftClosing{
		Shift:        *shift,
		ExpectedCash: expected,
		Difference:   actualEndCash - expected,
	}, nil
}

func (s ShiftService) checkCloser(ctx context.Context, closedByID int64) error {
	if s.Users == nil {
		return nil
	}
	if _, err := s.Users.GetByID(ctx, closedByID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ValidationError("closedBy is not a known user")
		}
		return domain.PersistenceError("load closing user", err)
	}
	return nil
}

// Accrue adds a settled amount to the open shift. It never fails: with no
// open shift it does nothing, and storage errors are logged and counted.
func (s ShiftService) Accrue(ctx context.Context, amount int64) {
	ok, err := s.Store.Accrue(ctx, amount)
	if err != nil {
		metrics.AccrualFailures.Inc()
		s.logger().Error("shift accrual failed", "amount", amount, "error", err)
		return
	}
	if !ok {
		s.logger().Debug("no open shift; accrual skipped", "amount", amount)
	}
}

func (s ShiftService) Current(ctx context.Context) (*domain.CashShift, error) {
	shift, err := s.Store.Current(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("No open shift")
		}
		return nil, domain.PersistenceError("load current shift", err)
	}
	return shift, nil
}

func (s ShiftService) List(ctx context.Context, status string) ([]domain.CashShift, error) {
	switch domain.ShiftStatus(status) {
	case "", domain.ShiftOpen, domain.ShiftClosed:
	default:
		return nil, domain.ValidationError("status must be open or closed")
	}
	items, err := s.Store.List(ctx, status, 100)
	if err != nil {
		return nil, domain.PersistenceError("list shifts", err)
	}
	return items, nil
}

func (s ShiftService) Summary(ctx context.Context, id int64) (*domain.ShiftSummary, error) {
	shift, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, err := s.Store.Summary(ctx, *shift)
	if err != nil {
		return nil, domain.PersistenceError("summarize shift", err)
	}
	return &sum, nil
}

func (s ShiftService) get(ctx context.Context, id int64) (*domain.CashShift, error) {
	shift, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Shift not found")
		}
		return nil, domain.PersistenceError("load shift", err)
	}
	return shift, nil
}

func (s ShiftService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
