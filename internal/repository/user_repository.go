package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// pgxQuerier is satisfied by both pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type UserRepository struct {
	DB *db.Postgres
}

type SaveUserParams struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Role            domain.UserRole
	PasswordHash    *string
	PinHash         *string
	IsGoogle        bool
	CommissionType  *domain.CommissionType
	CommissionValue *float64
	Active          bool
}

const userColumns = `id, name, email, phone, role, is_google, password_hash, pin_hash, commission_type, commission_value, active, created_at, updated_at`

func (r UserRepository) Create(ctx context.Context, p SaveUserParams) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, role, is_google, password_hash, pin_hash, commission_type, commission_value, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
		RETURNING `+userColumns,
		p.Name, p.Email, p.Phone, p.Role, p.IsGoogle, p.PasswordHash, p.PinHash, commissionTypeArg(p.CommissionType), p.CommissionValue, p.Active)
	return scanUser(row)
}

// Update overwrites profile fields; nil hashes keep the stored secret.
func (r UserRepository) Update(ctx context.Context, p SaveUserParams) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE users SET
			name=$2,
			email=$3,
			phone=$4,
			role=$5,
			password_hash=COALESCE($6, password_hash),
			pin_hash=COALESCE($7, pin_hash),
			commission_type=$8,
			commission_value=$9,
			active=$10,
			updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
		RETURNING `+userColumns,
		p.ID, p.Name, p.Email, p.Phone, p.Role, p.PasswordHash, p.PinHash, commissionTypeArg(p.CommissionType), p.CommissionValue, p.Active)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE lower(email)=lower($1) AND email <> '' AND deleted_at IS NULL`, email)
}

func (r UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE phone=$1 AND phone <> '' AND deleted_at IS NULL ORDER BY active DESC, id ASC LIMIT 1`, phone)
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id=$1 AND deleted_at IS NULL`, id)
}

func (r UserRepository) getOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns users ordered by name. Inactive users are skipped unless requested.
func (r UserRepository) List(ctx context.Context, includeInactive bool) ([]domain.User, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE deleted_at IS NULL AND ($1 OR active)
		ORDER BY name ASC, id ASC
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE users SET deleted_at=now(), active=false WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		u        domain.User
		role     string
		commType *string
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&role,
		&u.IsGoogle,
		&u.PasswordHash,
		&u.PinHash,
		&commType,
		&u.CommissionValue,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	if commType != nil {
		ct := domain.CommissionType(*commType)
		u.CommissionType = &ct
	}
	return &u, nil
}

func commissionTypeArg(ct *domain.CommissionType) *string {
	if ct == nil {
		return nil
	}
	s := string(*ct)
	return &s
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
