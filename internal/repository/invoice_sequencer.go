package repository

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// InvoiceSequencer issues INV-yyMMdd-NNN codes from a per-day counter row.
//
// Every call computes a floor from the stored codes: the larger of the day's
// transaction count and the highest numeric suffix already issued under the
// day's prefix. The counter moves to max(last_seq+1, floor+1) under its row
// lock, which serializes concurrent settlements on the same day. Because the
// floor is read again on each call, a retry after a rolled back collision
// skips past any code already stored instead of reissuing it.
type InvoiceSequencer struct {
	Location *time.Location
}

// Next must run inside the settlement transaction so a rollback returns the number.
func (s InvoiceSequencer) Next(ctx context.Context, q pgxQuerier, at time.Time) (string, error) {
	start, end := domain.DayBounds(at, s.Location)
	var seq int
	err := q.QueryRow(ctx, `
		INSERT INTO invoice_counters (day, last_seq)
		VALUES (
			$1::date,
			GREATEST(
				(SELECT COUNT(*) FROM transactions WHERE transacted_at >= $2 AND transacted_at < $3),
				(SELECT COALESCE(MAX(CAST(substring(invoice_code FROM '[0-9]+$') AS INTEGER)), 0)
				 FROM transactions WHERE starts_with(invoice_code, $4))
			) + 1
		)
		ON CONFLICT (day) DO UPDATE
			SET last_seq = GREATEST(invoice_counters.last_seq + 1, EXCLUDED.last_seq)
		RETURNING last_seq
	`, start.Format("2006-01-02"), start, end, domain.InvoiceDayPrefix(start)).Scan(&seq)
	if err != nil {
		return "", err
	}
	return domain.InvoiceCode(start, seq), nil
}
