package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// ShiftRepository stores cash shifts. The single-open-shift rule lives in the
// cash_shifts_single_open partial unique index.
type ShiftRepository struct {
	DB *db.Postgres
}

// ErrShiftAlreadyOpen is returned when the single-open-shift index rejects an insert.
var ErrShiftAlreadyOpen = errors.New("a shift is already open")

const shiftSelect = `
	SELECT s.id, s.opened_by_id, COALESCE(u.name, ''), s.closed_by_id, s.start_cash, s.actual_end_cash,
	       s.total_revenue, s.status, s.start_time, s.end_time
	FROM cash_shifts s
	LEFT JOIN users u ON u.id = s.opened_by_id
`

func (r ShiftRepository) Open(ctx context.Context, openedByID int64, startCash int64) (*domain.CashShift, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO cash_shifts (opened_by_id, start_cash, total_revenue, status, start_time)
		VALUES ($1,$2,0,'open', now())
		RETURNING id
	`, openedByID, startCash).Scan(&id)
	if err != nil {
		if db.ConstraintName(err) == "cash_shifts_single_open" {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r ShiftRepository) Get(ctx context.Context, id int64) (*domain.CashShift, error) {
	return r.getOne(ctx, ` WHERE s.id=$1`, id)
}

func (r ShiftRepository) Current(ctx context.Context) (*domain.CashShift, error) {
	return r.getOne(ctx, ` WHERE s.status='open' LIMIT 1`)
}

func (r ShiftRepository) getOne(ctx context.Context, where string, args ...any) (*domain.CashShift, error) {
	s, err := scanShift(r.DB.Pool.QueryRow(ctx, shiftSelect+where, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// Close transitions an open shift to closed. It returns ErrNotFound when the
// shift is missing and the current row unchanged when it was already closed.
func (r ShiftRepository) Close(ctx context.Context, id int64, actualEndCash int64, closedByID int64) (*domain.CashShift, bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE cash_shifts
		SET status='closed', end_time=now(), actual_end_cash=$2, closed_by_id=$3
		WHERE id=$1 AND status='open'
	`, id, actualEndCash, closedByID)
	if err != nil {
		return nil, false, err
	}
	shift, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return shift, tag.RowsAffected() == 1, nil
}

// Accrue adds amount to the open shift's revenue. It returns false when no shift is open.
func (r ShiftRepository) Accrue(ctx context.Context, amount int64) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE cash_shifts SET total_revenue = total_revenue + $1 WHERE status='open'
	`, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r ShiftRepository) List(ctx context.Context, status string, limit int) ([]domain.CashShift, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, shiftSelect+`
		WHERE ($1 = '' OR s.status = $1)
		ORDER BY s.start_time DESC, s.id DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.CashShift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

// Summary aggregates transactions settled during the shift by payment method.
func (r ShiftRepository) Summary(ctx context.Context, shift domain.CashShift) (domain.ShiftSummary, error) {
	end := time.Now()
	if shift.EndTime != nil {
		end = *shift.EndTime
	}
	s := domain.ShiftSummary{ShiftID: shift.ID}
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'cash'), 0) AS cash,
			COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'qris'), 0) AS qris,
			COUNT(*) AS cnt
		FROM transactions
		WHERE transacted_at >= $1 AND transacted_at <= $2
	`, shift.StartTime, end).Scan(&s.TotalCash, &s.TotalQRIS, &s.Transactions)
	return s, err
}

func scanShift(row interface {
	Scan(dest ...any) error
}) (*domain.CashShift, error) {
	var (
		s      domain.CashShift
		status string
	)
	if err := row.Scan(&s.ID, &s.OpenedByID, &s.OpenedByName, &s.ClosedByID, &s.StartCash, &s.ActualEndCash,
		&s.TotalRevenue, &status, &s.StartTime, &s.EndTime); err != nil {
		return nil, err
	}
	s.Status = domain.ShiftStatus(status)
	return &s, nil
}
