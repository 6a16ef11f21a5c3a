package repository

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// FinanceRepository stores operating expenses and owner capital movements.
type FinanceRepository struct {
	DB *db.Postgres
}

type CreateExpenseInput struct {
	Description string
	Amount      int64
	Category    string
	Date        time.Time
}

type CreateCapitalInput struct {
	Description string
	Amount      int64
	Type        domain.CapitalType
	Date        time.Time
}

func (r FinanceRepository) CreateExpense(ctx context.Context, in CreateExpenseInput) (*domain.Expense, error) {
	var e domain.Expense
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO expenses (description, amount, category, entry_date, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, description, amount, category, entry_date, created_at
	`, in.Description, in.Amount, in.Category, in.Date.Format("2006-01-02")).Scan(
		&e.ID, &e.Description, &e.Amount, &e.Category, &e.Date, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r FinanceRepository) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE expenses SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpenses returns expenses dated in [start, end).
func (r FinanceRepository) ListExpenses(ctx context.Context, start, end time.Time) ([]domain.Expense, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, description, amount, category, entry_date, created_at
		FROM expenses
		WHERE deleted_at IS NULL AND entry_date >= $1 AND entry_date < $2
		ORDER BY entry_date DESC, id DESC
	`, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r FinanceRepository) CreateCapital(ctx context.Context, in CreateCapitalInput) (*domain.Capital, error) {
	var c domain.Capital
	var typ string
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO capital_entries (description, amount, type, entry_date, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, description, amount, type, entry_date, created_at
	`, in.Description, in.Amount, string(in.Type), in.Date.Format("2006-01-02")).Scan(
		&c.ID, &c.Description, &c.Amount, &typ, &c.Date, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = domain.CapitalType(typ)
	return &c, nil
}

func (r FinanceRepository) ListCapital(ctx context.Context, start, end time.Time) ([]domain.Capital, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, description, amount, type, entry_date, created_at
		FROM capital_entries
		WHERE entry_date >= $1 AND entry_date < $2
		ORDER BY entry_date DESC, id DESC
	`, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Capital
	for rows.Next() {
		var c domain.Capital
		var typ string
		if err := rows.Scan(&c.ID, &c.Description, &c.Amount, &typ, &c.Date, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Type = domain.CapitalType(typ)
		items = append(items, c)
	}
	return items, rows.Err()
}

// ProfitLoss sums revenue from transactions in [start, end) against expenses
// and capital entries dated within the same local days.
func (r FinanceRepository) ProfitLoss(ctx context.Context, start, end time.Time) (domain.ProfitLoss, error) {
	var pl domain.ProfitLoss
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM transactions WHERE transacted_at >= $1 AND transacted_at < $2),
			(SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE deleted_at IS NULL AND entry_date >= $3 AND entry_date < $4),
			(SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'in'), 0) FROM capital_entries WHERE entry_date >= $3 AND entry_date < $4),
			(SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'out'), 0) FROM capital_entries WHERE entry_date >= $3 AND entry_date < $4)
	`, start, end, start.Format("2006-01-02"), end.Format("2006-01-02")).Scan(&pl.Revenue, &pl.Expenses, &pl.CapitalIn, &pl.CapitalOut)
	if err != nil {
		return pl, err
	}
	pl.Profit = pl.Revenue - pl.Expenses
	return pl, nil
}
