package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/metrics"
	"github.com/nicolaananda/barber-pos-sub000/internal/phone"
	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
	"github.com/nicolaananda/barber-pos-sub000/internal/storage"
)

const (
	msgSlotTaken     = "Slot waktu ini sudah dibooking, silakan pilih jam lain"
	msgProofRequired = "Bukti transfer wajib diupload!"
)

// BookingService validates self-service appointments and drives their status.
type BookingService struct {
	Bookings    BookingStore
	Users       UserStore
	Catalog     CatalogStore
	OffDays     OffDayStore
	Customers   CustomerStore
	Outbox      *OutboxService
	Proofs      ports.ProofStorage
	OpeningHour int
	ClosingHour int
	ShopName    string
	Logger      *slog.Logger
	Now         func() time.Time
}

// ProofUpload is the raw payment proof submitted with a booking.
type ProofUpload struct {
	Data        []byte
	ContentType string
}

type CreateBookingInput struct {
	BarberID      int64
	CustomerName  string
	CustomerPhone string
	BookingDate   time.Time
	TimeSlot      string
	ServiceID     *int64
	ServiceName   string
	Proof         *ProofUpload
}

// Availability lists the business slots of a day and which ones are taken.
type Availability struct {
	BarberID int64
	Date     time.Time
	OffDay   bool
	Slots    []string
	Taken    []string
}

// Create checks the slot format and business hours, then slot conflicts, then
// the payment proof, and finally the barber. The proof is stored only after
// every check passed.
func (s BookingService) Create(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, domain.ValidationError("customerName is required")
	}
	customerPhone, err := phone.Normalize(in.CustomerPhone)
	if err != nil {
		return nil, domain.ValidationError("Nomor WhatsApp tidak valid")
	}
	if in.BarberID <= 0 {
		return nil, domain.ValidationError("barberId is required")
	}
	if in.BookingDate.IsZero() {
		return nil, domain.ValidationError("bookingDate is required")
	}
	slot, err := s.checkSlot(in.TimeSlot)
	if err != nil {
		return nil, err
	}

	taken, err := s.Bookings.HasActive(ctx, in.BarberID, in.BookingDate, slot)
	if err != nil {
		return nil, domain.PersistenceError("check slot", err)
	}
	if taken {
		return nil, domain.ConflictError(msgSlotTaken)
	}

	if in.Proof == nil || len(in.Proof.Data) == 0 {
		return nil, domain.ValidationError(msgProofRequired)
	}

	if err := s.checkBarber(ctx, in.BarberID, in.BookingDate); err != nil {
		return nil, err
	}

	serviceName := strings.TrimSpace(in.ServiceName)
	var servicePrice *int64
	if in.ServiceID != nil {
		svc, err := s.Catalog.Get(ctx, *in.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.ValidationError("Invalid serviceId")
			}
			return nil, domain.PersistenceError("load service", err)
		}
		serviceName = svc.Name
		price := svc.Price
		servicePrice = &price
	}

	compressed, err := storage.CompressProof(in.Proof.Data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, domain.ValidationError("%s", err.Error())
		}
		return nil, domain.ValidationError("Bukti transfer tidak dapat dibaca")
	}
	proofURL, err := s.Proofs.Save(ctx, storage.ProofObjectName(), "image/jpeg", compressed)
	if err != nil {
		return nil, domain.UpstreamError("store payment proof", err)
	}

	b, err := s.Bookings.Create(ctx, repository.CreateBookingInput{
		BarberID:      in.BarberID,
		CustomerName:  name,
		CustomerPhone: customerPhone,
		BookingDate:   in.BookingDate,
		TimeSlot:      slot,
		ServiceID:     in.ServiceID,
		ServiceName:   serviceName,
		ServicePrice:  servicePrice,
		PaymentProof:  proofURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, domain.ConflictError(msgSlotTaken)
		}
		return nil, domain.PersistenceError("save booking", err)
	}
	metrics.Bookings.WithLabelValues(string(domain.BookingPending)).Inc()
	return b, nil
}

// checkSlot validates the label against business hours and returns its
// canonical spelling, which is what gets stored and compared.
func (s BookingService) checkSlot(raw string) (string, error) {
	slot, err := domain.ParseTimeSlot(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.ValidationError("Format jam tidak valid, gunakan HH:MM - HH:MM")
	}
	if slot.StartMinute >= slot.EndMinute {
		return "", domain.ValidationError("Jam mulai harus sebelum jam selesai")
	}
	if !slot.Within(s.OpeningHour, s.ClosingHour) {
		return "", domain.ValidationError("Jam booking harus antara %02d:00 dan %02d:00", s.OpeningHour, s.ClosingHour)
	}
	return slot.Label(), nil
}

func (s BookingService) checkBarber(ctx context.Context, barberID int64, date time.Time) error {
	barber, err := s.Users.GetByID(ctx, barberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ValidationError("Invalid barberId")
		}
		return domain.PersistenceError("load barber", err)
	}
	if barber.Role == domain.RoleAdmin || !barber.Active {
		return domain.ValidationError("Barber tidak tersedia")
	}
	off, err := s.OffDays.IsOff(ctx, barberID, date)
	if err != nil {
		return domain.PersistenceError("check off day", err)
	}
	if off {
		return domain.ValidationError("Barber sedang libur pada tanggal tersebut")
	}
	return nil
}

// UpdateStatus applies a state machine transition. Confirming a booking
// upserts the customer and queues a WhatsApp confirmation; failures of those
// side effects are logged and do not undo the status change.
func (s BookingService) UpdateStatus(ctx context.Context, id int64, to domain.BookingStatus) (*domain.Booking, error) {
	if !to.Valid() {
		return nil, domain.ValidationError("invalid status %q", to)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, to) {
		return nil, domain.ValidationError("cannot change booking from %s to %s", current.Status, to)
	}
	updated, err := s.Bookings.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ConflictError("Booking status was changed by another request")
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, domain.ConflictError(msgSlotTaken)
		}
		return nil, domain.PersistenceError("update booking", err)
	}
	metrics.Bookings.WithLabelValues(string(to)).Inc()

	if to == domain.BookingConfirmed {
		s.onConfirmed(context.WithoutCancel(ctx), *updated)
	}
	return updated, nil
}

func (s BookingService) onConfirmed(ctx context.Context, b domain.Booking) {
	if s.Customers != nil {
		if _, err := s.Customers.Upsert(ctx, b.CustomerName, b.CustomerPhone, false, s.now()); err != nil {
			s.logger().Warn("customer upsert on booking confirm failed", "booking_id", b.ID, "error", err)
		}
	}
	if s.Outbox != nil {
		if _, err := s.Outbox.Enqueue(ctx, "booking_confirmation", b.CustomerPhone, FormatBookingConfirmation(s.ShopName, b)); err != nil {
			s.logger().Warn("queue booking confirmation failed", "booking_id", b.ID, "error", err)
		}
	}
}

func (s BookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Booking not found")
		}
		return nil, domain.PersistenceError("load booking", err)
	}
	return b, nil
}

func (s BookingService) List(ctx context.Context, date *time.Time, status string) ([]domain.Booking, error) {
	if status != "" && !domain.BookingStatus(status).Valid() {
		return nil, domain.ValidationError("invalid status %q", status)
	}
	items, err := s.Bookings.List(ctx, repository.BookingFilter{Date: date, Status: status})
	if err != nil {
		return nil, domain.PersistenceError("list bookings", err)
	}
	return items, nil
}

// ListByPhone backs the public status page.
func (s BookingService) ListByPhone(ctx context.Context, raw string) ([]domain.Booking, error) {
	p, err := phone.Normalize(raw)
	if err != nil {
		return nil, domain.ValidationError("Nomor WhatsApp tidak valid")
	}
	items, err := s.Bookings.List(ctx, repository.BookingFilter{Phone: p, Limit: 20})
	if err != nil {
		return nil, domain.PersistenceError("list bookings", err)
	}
	return items, nil
}

func (s BookingService) Availability(ctx context.Context, barberID int64, date time.Time) (*Availability, error) {
	if barberID <= 0 {
		return nil, domain.ValidationError("barberId is required")
	}
	off, err := s.OffDays.IsOff(ctx, barberID, date)
	if err != nil {
		return nil, domain.PersistenceError("check off day", err)
	}
	taken, err := s.Bookings.TakenSlots(ctx, barberID, date)
	if err != nil {
		return nil, domain.PersistenceError("list taken slots", err)
	}
	for i := range taken {
		taken[i] = domain.CanonicalTimeSlot(taken[i])
	}
	return &Availability{
		BarberID: barberID,
		Date:     date,
		OffDay:   off,
		Slots:    domain.BusinessSlots(s.OpeningHour, s.ClosingHour),
		Taken:    taken,
	}, nil
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
