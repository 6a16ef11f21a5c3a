package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// ServiceRepository stores the barbershop service catalog (haircut, shave, ...).
type ServiceRepository struct {
	DB *db.Postgres
}

type SaveServiceInput struct {
	ID              int64
	Name            string
	Price           int64
	CommissionType  domain.CommissionType
	CommissionValue float64
	IsActive        bool
}

const serviceColumns = `id, name, price, commission_type, commission_value, is_active, created_at, updated_at`

// List returns catalog entries ordered by name; inactive ones only when asked.
func (r ServiceRepository) List(ctx context.Context, includeInactive bool) ([]domain.Service, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE ($1 OR is_active)
		ORDER BY name ASC, id ASC
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r ServiceRepository) Get(ctx context.Context, id int64) (*domain.Service, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=$1`, id)
	s, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r ServiceRepository) Create(ctx context.Context, in SaveServiceInput) (*domain.Service, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO services (name, price, commission_type, commission_value, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now(), now())
		RETURNING `+serviceColumns,
		in.Name, in.Price, string(in.CommissionType), in.CommissionValue, in.IsActive)
	return scanService(row)
}

func (r ServiceRepository) Update(ctx context.Context, in SaveServiceInput) (*domain.Service, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE services SET name=$2, price=$3, commission_type=$4, commission_value=$5, is_active=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+serviceColumns,
		in.ID, in.Name, in.Price, string(in.CommissionType), in.CommissionValue, in.IsActive)
	s, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// Deactivate soft-deletes a service. Historical invoices keep their snapshot.
func (r ServiceRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE services SET is_active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanService(row interface {
	Scan(dest ...any) error
}) (*domain.Service, error) {
	var (
		s  domain.Service
		ct string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Price, &ct, &s.CommissionValue, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CommissionType = domain.CommissionType(ct)
	return &s, nil
}
