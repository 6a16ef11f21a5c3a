package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type OffDayRepository struct {
	DB *db.Postgres
}

// ErrOffDayExists is returned for a second off-day on the same barber and date.
var ErrOffDayExists = errors.New("off day already recorded")

func (r OffDayRepository) Create(ctx context.Context, barberID int64, date time.Time, reason string) (*domain.OffDay, error) {
	var o domain.OffDay
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO off_days (barber_id, off_date, reason, created_at)
		VALUES ($1,$2,$3, now())
		RETURNING id, barber_id, off_date, reason, created_at
	`, barberID, date.Format("2006-01-02"), reason).Scan(&o.ID, &o.BarberID, &o.Date, &o.Reason, &o.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrOffDayExists
		}
		return nil, err
	}
	return &o, nil
}

func (r OffDayRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM off_days WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns off-days in [start, end), optionally for one barber.
func (r OffDayRepository) List(ctx context.Context, barberID *int64, start, end time.Time) ([]domain.OffDay, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, barber_id, off_date, reason, created_at
		FROM off_days
		WHERE ($1::bigint IS NULL OR barber_id = $1)
		  AND off_date >= $2 AND off_date < $3
		ORDER BY off_date ASC, barber_id ASC
	`, barberID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.OffDay
	for rows.Next() {
		var o domain.OffDay
		if err := rows.Scan(&o.ID, &o.BarberID, &o.Date, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (r OffDayRepository) IsOff(ctx context.Context, barberID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM off_days WHERE barber_id=$1 AND off_date=$2)
	`, barberID, date.Format("2006-01-02")).Scan(&exists)
	return exists, err
}
