package repository

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type CustomerRepository struct {
	DB *db.Postgres
}

const customerColumns = `id, name, phone, total_visits, last_visit, created_at, updated_at`

// Search lists customers matching q on name or phone, most recent visitors first.
func (r CustomerRepository) Search(ctx context.Context, q string, limit int) ([]domain.Customer, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%'
		ORDER BY last_visit DESC NULLS LAST, id DESC
		LIMIT $2
	`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.TotalVisits, &c.LastVisit, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Upsert records a customer keyed by phone.
func (r CustomerRepository) Upsert(ctx context.Context, name, phone string, countVisit bool, at time.Time) (*domain.Customer, error) {
	return upsertCustomer(ctx, r.DB.Pool, name, phone, countVisit, at)
}

// upsertCustomer refreshes name and, when countVisit is set, bumps total_visits and last_visit.
func upsertCustomer(ctx context.Context, q pgxQuerier, name, phone string, countVisit bool, at time.Time) (*domain.Customer, error) {
	visits := 0
	var lastVisit *time.Time
	if countVisit {
		visits = 1
		lastVisit = &at
	}
	var c domain.Customer
	err := q.QueryRow(ctx, `
		INSERT INTO customers (name, phone, total_visits, last_visit, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		ON CONFLICT (phone) DO UPDATE SET
			name=EXCLUDED.name,
			total_visits=customers.total_visits + EXCLUDED.total_visits,
			last_visit=COALESCE(EXCLUDED.last_visit, customers.last_visit),
			updated_at=now()
		RETURNING `+customerColumns,
		name, phone, visits, lastVisit).Scan(&c.ID, &c.Name, &c.Phone, &c.TotalVisits, &c.LastVisit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
