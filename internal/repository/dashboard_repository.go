package repository

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// DashboardRepository aggregates transactions for the admin dashboard.
// Location decides which calendar day a transaction belongs to.
type DashboardRepository struct {
	DB       *db.Postgres
	Location *time.Location
}

type DashboardSummary struct {
	TotalRevenue      int64
	TotalTransactions int64
	TodayRevenue      int64
	TodayTransactions int64
}

type DashboardItem struct {
	Name   string
	Amount int64
	Count  int64
}

type SalesPoint struct {
	Label  string
	Amount int64
}

func (r DashboardRepository) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Summary totals transactions in [start, end) and for the current local day.
func (r DashboardRepository) Summary(ctx context.Context, start, end time.Time) (DashboardSummary, error) {
	todayStart, todayEnd := domain.DayBounds(time.Now(), r.location())
	var s DashboardSummary
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE transacted_at >= $1 AND transacted_at < $2), 0),
			COUNT(*) FILTER (WHERE transacted_at >= $1 AND transacted_at < $2),
			COALESCE(SUM(total_amount) FILTER (WHERE transacted_at >= $3 AND transacted_at < $4), 0),
			COUNT(*) FILTER (WHERE transacted_at >= $3 AND transacted_at < $4)
		FROM transactions
	`, start, end, todayStart, todayEnd).Scan(&s.TotalRevenue, &s.TotalTransactions, &s.TodayRevenue, &s.TodayTransactions)
	return s, err
}

func (r DashboardRepository) TopServices(ctx context.Context, start, end time.Time, limit int) ([]DashboardItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ti.name, COALESCE(SUM(ti.price*ti.qty),0) AS amount, COALESCE(SUM(ti.qty),0) AS qty
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE t.transacted_at >= $1 AND t.transacted_at < $2
		GROUP BY ti.name
		ORDER BY amount DESC, ti.name ASC
		LIMIT $3
	`, start, end, limit)
	if err != nil {
		return nil, err
	}
	return scanDashboardItems(rows)
}

func (r DashboardRepository) TopBarbers(ctx context.Context, start, end time.Time, limit int) ([]DashboardItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT u.name, COALESCE(SUM(t.total_amount),0) AS amount, COUNT(*) AS cnt
		FROM transactions t
		JOIN users u ON u.id = t.barber_id
		WHERE t.transacted_at >= $1 AND t.transacted_at < $2
		GROUP BY u.id, u.name
		ORDER BY amount DESC, u.name ASC
		LIMIT $3
	`, start, end, limit)
	if err != nil {
		return nil, err
	}
	return scanDashboardItems(rows)
}

// SalesSeries returns daily revenue for the last days local days, oldest first.
func (r DashboardRepository) SalesSeries(ctx context.Context, days int) ([]SalesPoint, error) {
	if days <= 0 {
		days = 7
	}
	loc := r.location()
	_, end := domain.DayBounds(time.Now(), loc)
	start := end.AddDate(0, 0, -days)
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT to_char((transacted_at AT TIME ZONE $3)::date, 'YYYY-MM-DD') AS day, COALESCE(SUM(total_amount),0) AS amount
		FROM transactions
		WHERE transacted_at >= $1 AND transacted_at < $2
		GROUP BY day
		ORDER BY day ASC
	`, start, end, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []SalesPoint
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Label, &p.Amount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func scanDashboardItems(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]DashboardItem, error) {
	defer rows.Close()
	var items []DashboardItem
	for rows.Next() {
		var it DashboardItem
		if err := rows.Scan(&it.Name, &it.Amount, &it.Count); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
