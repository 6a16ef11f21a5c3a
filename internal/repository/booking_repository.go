package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type BookingRepository struct {
	DB *db.Postgres
}

// ErrSlotTaken is returned when the bookings_active_slot index rejects an insert or update.
var ErrSlotTaken = errors.New("slot already booked")

type CreateBookingInput struct {
	BarberID      int64
	CustomerName  string
	CustomerPhone string
	BookingDate   time.Time
	TimeSlot      string
	ServiceID     *int64
	ServiceName   string
	ServicePrice  *int64
	PaymentProof  string
}

type BookingFilter struct {
	Date   *time.Time
	Status string
	Phone  string
	Limit  int
}

const bookingSelect = `
	SELECT b.id, b.barber_id, COALESCE(u.name, ''), b.customer_name, b.customer_phone, b.booking_date, b.time_slot,
	       b.service_id, b.service_name, b.service_price, b.status, b.payment_proof, b.created_at, b.updated_at
	FROM bookings b
	LEFT JOIN users u ON u.id = b.barber_id
`

func (r BookingRepository) Create(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO bookings (barber_id, customer_name, customer_phone, booking_date, time_slot, service_id, service_name, service_price, status, payment_proof, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending',$9, now(), now())
		RETURNING id
	`, in.BarberID, in.CustomerName, in.CustomerPhone, in.BookingDate.Format("2006-01-02"), in.TimeSlot,
		in.ServiceID, in.ServiceName, in.ServicePrice, in.PaymentProof).Scan(&id)
	if err != nil {
		if db.ConstraintName(err) == "bookings_active_slot" {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r BookingRepository) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.DB.Pool.QueryRow(ctx, bookingSelect+` WHERE b.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// HasActive reports whether a pending or confirmed booking holds the slot.
func (r BookingRepository) HasActive(ctx context.Context, barberID int64, date time.Time, slot string) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE barber_id=$1 AND booking_date=$2 AND time_slot=$3 AND status IN ('pending','confirmed')
		)
	`, barberID, date.Format("2006-01-02"), slot).Scan(&exists)
	return exists, err
}

// TakenSlots lists slots held by live bookings for a barber on a day.
func (r BookingRepository) TakenSlots(ctx context.Context, barberID int64, date time.Time) ([]string, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT time_slot FROM bookings
		WHERE barber_id=$1 AND booking_date=$2 AND status IN ('pending','confirmed')
		ORDER BY time_slot ASC
	`, barberID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// UpdateStatus moves a booking from one status to another; it fails with
// ErrNotFound when the row is not in the expected status anymore.
func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE bookings SET status=$3, updated_at=now() WHERE id=$1 AND status=$2
	`, id, string(from), string(to))
	if err != nil {
		if db.ConstraintName(err) == "bookings_active_slot" {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	var date *string
	if f.Date != nil {
		d := f.Date.Format("2006-01-02")
		date = &d
	}
	rows, err := r.DB.Pool.Query(ctx, bookingSelect+`
		WHERE ($1::date IS NULL OR b.booking_date = $1::date)
		  AND ($2 = '' OR b.status = $2)
		  AND ($3 = '' OR b.customer_phone = $3)
		ORDER BY b.booking_date DESC, b.time_slot ASC, b.id DESC
		LIMIT $4
	`, date, f.Status, f.Phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

func scanBooking(row interface {
	Scan(dest ...any) error
}) (*domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.BarberID, &b.BarberName, &b.CustomerName, &b.CustomerPhone, &b.BookingDate, &b.TimeSlot,
		&b.ServiceID, &b.ServiceName, &b.ServicePrice, &status, &b.PaymentProof, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
