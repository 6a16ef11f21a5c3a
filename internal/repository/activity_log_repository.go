package repository

import (
	"context"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type ActivityLogRepository struct {
	DB *db.Postgres
}

type CreateActivityLogInput struct {
	Title      string
	Message    string
	Actor      string
	Type       domain.ActivityLogType
	EntityType string
	EntityID   *int64
	OldValue   *string
	NewValue   *string
	Timestamp  time.Time
}

func (r ActivityLogRepository) Create(ctx context.Context, in CreateActivityLogInput) (int64, error) {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO activity_logs (title, message, actor, type, entity_type, entity_id, old_value, new_value, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8::jsonb,$9)
		RETURNING id
	`, in.Title, in.Message, in.Actor, string(in.Type), in.EntityType, in.EntityID, in.OldValue, in.NewValue, ts).Scan(&id)
	return id, err
}

// List returns audit entries newest first, optionally for one entity type.
func (r ActivityLogRepository) List(ctx context.Context, entityType string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, title, message, actor, type, entity_type, entity_id, old_value::text, new_value::text, logged_at
		FROM activity_logs
		WHERE ($1 = '' OR entity_type = $1)
		ORDER BY logged_at DESC, id DESC
		LIMIT $2
	`, entityType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		var typ string
		if err := rows.Scan(&l.ID, &l.Title, &l.Message, &l.Actor, &typ, &l.EntityType, &l.EntityID, &l.OldValue, &l.NewValue, &l.LoggedAt); err != nil {
			return nil, err
		}
		l.Type = domain.ActivityLogType(typ)
		out = append(out, l)
	}
	return out, rows.Err()
}
