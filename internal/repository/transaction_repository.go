package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type TransactionRepository struct {
	DB        *db.Postgres
	Sequencer InvoiceSequencer
}

type CreateTransactionInput struct {
	BarberID      int64
	CustomerName  *string
	CustomerPhone *string
	PaymentMethod domain.PaymentMethod
	TotalAmount   int64
	Items         []domain.TransactionItem
	At            time.Time
}

type UpdateTransactionInput struct {
	BarberID      int64
	CustomerName  *string
	CustomerPhone *string
	PaymentMethod domain.PaymentMethod
	TotalAmount   int64
	Items         []domain.TransactionItem
}

type TransactionFilter struct {
	Start *time.Time
	End   *time.Time
	Phone string
	Limit int
}

// Create persists the customer visit, the invoice number, the header and its
// items in a single database transaction.
func (r TransactionRepository) Create(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		if in.CustomerName != nil && in.CustomerPhone != nil {
			if _, err := upsertCustomer(ctx, tx, *in.CustomerName, *in.CustomerPhone, true, in.At); err != nil {
				return err
			}
		}

		code, err := r.Sequencer.Next(ctx, tx, in.At)
		if err != nil {
			return err
		}

		t := domain.Transaction{
			InvoiceCode:   code,
			Date:          in.At,
			BarberID:      in.BarberID,
			CustomerName:  in.CustomerName,
			CustomerPhone: in.CustomerPhone,
			TotalAmount:   in.TotalAmount,
			PaymentMethod: in.PaymentMethod,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO transactions
			(invoice_code, transacted_at, barber_id, customer_name, customer_phone, total_amount, payment_method, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
			RETURNING id, created_at, updated_at
		`, code, in.At, in.BarberID, in.CustomerName, in.CustomerPhone, in.TotalAmount, string(in.PaymentMethod)).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return err
		}

		t.Items, err = insertItems(ctx, tx, t.ID, in.Items)
		if err != nil {
			return err
		}
		out = &t
		return nil
	})
	if err != nil {
		if isDuplicateInvoice(err) {
			return nil, ErrDuplicateInvoice
		}
		return nil, err
	}
	return out, nil
}

// Update rewrites a transaction in place. Used only by audited admin corrections.
func (r TransactionRepository) Update(ctx context.Context, id int64, in UpdateTransactionInput) error {
	return r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE transactions
			SET barber_id=$2, customer_name=$3, customer_phone=$4, total_amount=$5, payment_method=$6, updated_at=now()
			WHERE id=$1
		`, id, in.BarberID, in.CustomerName, in.CustomerPhone, in.TotalAmount, string(in.PaymentMethod))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transaction_items WHERE transaction_id=$1`, id); err != nil {
			return err
		}
		_, err = insertItems(ctx, tx, id, in.Items)
		return err
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, txID int64, items []domain.TransactionItem) ([]domain.TransactionItem, error) {
	out := make([]domain.TransactionItem, 0, len(items))
	for i, item := range items {
		item.TransactionID = txID
		err := tx.QueryRow(ctx, `
			INSERT INTO transaction_items (transaction_id, position, name, price, qty)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, txID, i, item.Name, item.Price, item.Qty).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

const transactionSelect = `
	SELECT t.id, t.invoice_code, t.transacted_at, t.barber_id, COALESCE(u.name, ''), t.customer_name, t.customer_phone,
	       t.total_amount, t.payment_method, t.created_at, t.updated_at
	FROM transactions t
	LEFT JOIN users u ON u.id = t.barber_id
`

func (r TransactionRepository) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	rows, err := r.DB.Pool.Query(ctx, transactionSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	txs, err := r.collect(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, ErrNotFound
	}
	return &txs[0], nil
}

// List returns transactions newest first; the id tie-break keeps the order stable.
func (r TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.DB.Pool.Query(ctx, transactionSelect+`
		WHERE ($1::timestamptz IS NULL OR t.transacted_at >= $1)
		  AND ($2::timestamptz IS NULL OR t.transacted_at < $2)
		  AND ($3 = '' OR t.customer_phone = $3)
		ORDER BY t.transacted_at DESC, t.id DESC
		LIMIT $4
	`, f.Start, f.End, f.Phone, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListBetween loads every transaction in [start, end) with items, oldest first.
func (r TransactionRepository) ListBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := r.DB.Pool.Query(ctx, transactionSelect+`
		WHERE t.transacted_at >= $1 AND t.transacted_at < $2
		ORDER BY t.transacted_at ASC, t.id ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r TransactionRepository) collect(ctx context.Context, rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	var txs []domain.Transaction
	var ids []int64
	for rows.Next() {
		var t domain.Transaction
		var method string
		if err := rows.Scan(
			&t.ID, &t.InvoiceCode, &t.Date, &t.BarberID, &t.BarberName, &t.CustomerName, &t.CustomerPhone,
			&t.TotalAmount, &method, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.PaymentMethod = domain.PaymentMethod(method)
		ids = append(ids, t.ID)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return txs, nil
	}

	itemRows, err := r.DB.Pool.Query(ctx, `
		SELECT transaction_id, id, name, price, qty
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsByTx := make(map[int64][]domain.TransactionItem)
	for itemRows.Next() {
		var it domain.TransactionItem
		if err := itemRows.Scan(&it.TransactionID, &it.ID, &it.Name, &it.Price, &it.Qty); err != nil {
			return nil, err
		}
		itemsByTx[it.TransactionID] = append(itemsByTx[it.TransactionID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range txs {
		txs[i].Items = itemsByTx[txs[i].ID]
	}
	return txs, nil
}

// ErrDuplicateInvoice is returned when the issued invoice code already exists.
var ErrDuplicateInvoice = errors.New("duplicate invoice code")

func isDuplicateInvoice(err error) bool {
	return db.ConstraintName(err) == "transactions_invoice_code_key"
}
