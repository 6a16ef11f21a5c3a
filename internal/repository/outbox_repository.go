package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// OutboxRepository persists outgoing WhatsApp messages until they are delivered.
type OutboxRepository struct {
	DB *db.Postgres
}

type EnqueueInput struct {
	Kind    string
	Phone   string
	Message string
	// Delay holds the message back from the dispatcher, e.g. while the caller
	// attempts delivery itself.
	Delay time.Duration
}

const outboxColumns = `id, kind, phone, message, status, attempts, last_error, next_attempt_at, sent_at, created_at`

func (r OutboxRepository) Enqueue(ctx context.Context, in EnqueueInput) (*domain.OutboxMessage, error) {
	return scanOutbox(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO outbox_messages (kind, phone, message, status, attempts, next_attempt_at, created_at)
		VALUES ($1,$2,$3,'pending',0, now() + make_interval(secs => $4), now())
		RETURNING `+outboxColumns, in.Kind, in.Phone, in.Message, in.Delay.Seconds()))
}

// ClaimDue locks up to limit pending messages whose next attempt is due and
// pushes their next attempt forward by lease so a crashed worker does not
// strand them. SKIP LOCKED lets concurrent dispatchers share the queue.
func (r OutboxRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE outbox_messages SET next_attempt_at = now() + make_interval(secs => $2)
			WHERE id IN (
				SELECT id FROM outbox_messages
				WHERE status = 'pending' AND next_attempt_at <= now()
				ORDER BY next_attempt_at ASC, id ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING `+outboxColumns, limit, lease.Seconds())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanOutbox(rows)
			if err != nil {
				return err
			}
			out = append(out, *m)
		}
		return rows.Err()
	})
	return out, err
}

func (r OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.DB.Pool.Exec(ctx, `
		UPDATE outbox_messages SET status='sent', sent_at=now(), attempts=attempts+1, last_error=NULL WHERE id=$1
	`, id)
	return err
}

// MarkFailed records a failed attempt. When giveUp is set the message leaves
// the queue; otherwise it is retried at next.
func (r OutboxRepository) MarkFailed(ctx context.Context, id int64, cause string, next time.Time, giveUp bool) error {
	status := string(domain.OutboxPending)
	if giveUp {
		status = string(domain.OutboxFailed)
	}
	_, err := r.DB.Pool.Exec(ctx, `
		UPDATE outbox_messages SET status=$2, attempts=attempts+1, last_error=$3, next_attempt_at=$4 WHERE id=$1
	`, id, status, cause, next)
	return err
}

func (r OutboxRepository) Get(ctx context.Context, id int64) (*domain.OutboxMessage, error) {
	m, err := scanOutbox(r.DB.Pool.QueryRow(ctx, `SELECT `+outboxColumns+` FROM outbox_messages WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r OutboxRepository) List(ctx context.Context, status string, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+outboxColumns+` FROM outbox_messages
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.OutboxMessage
	for rows.Next() {
		m, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func scanOutbox(row interface {
	Scan(dest ...any) error
}) (*domain.OutboxMessage, error) {
	var (
		m      domain.OutboxMessage
		status string
	)
	if err := row.Scan(&m.ID, &m.Kind, &m.Phone, &m.Message, &status, &m.Attempts, &m.LastError, &m.NextAttemptAt, &m.SentAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = domain.OutboxStatus(status)
	return &m, nil
}
