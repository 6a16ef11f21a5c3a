package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
}

// --- users ---

type fakeUsers struct {
	mu   sync.Mutex
	byID map[int64]domain.User
	next int64
	err  error
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]domain.User{}, next: 100}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, p repository.SaveUserParams) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if (p.Email != "" && strings.EqualFold(u.Email, p.Email)) || (p.Phone != "" && u.Phone == p.Phone) {
			return nil, errDuplicate
		}
	}
	f.next++
	u := domain.User{ID: f.next, Name: p.Name, Email: p.Email, Phone: p.Phone, Role: p.Role,
		PasswordHash: p.PasswordHash, PinHash: p.PinHash, CommissionType: p.CommissionType,
		CommissionValue: p.CommissionValue, Active: p.Active}
	f.byID[u.ID] = u
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, p repository.SaveUserParams) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[p.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Name, u.Email, u.Phone, u.Role = p.Name, p.Email, p.Phone, p.Role
	if p.PasswordHash != nil {
		u.PasswordHash = p.PasswordHash
	}
	if p.PinHash != nil {
		u.PinHash = p.PinHash
	}
	u.CommissionType, u.CommissionValue, u.Active = p.CommissionType, p.CommissionValue, p.Active
	f.byID[u.ID] = u
	return &u, nil
}

func (f *fakeUsers) find(match func(domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Phone != "" && u.Phone == phone })
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.ID == id })
}

func (f *fakeUsers) List(_ context.Context, includeInactive bool) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.byID {
		if includeInactive || u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// errDuplicate mimics a unique violation surfaced by pgx.
var errDuplicate = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"}

// --- catalog ---

type fakeCatalog struct {
	services []domain.Service
}

func (f *fakeCatalog) List(_ context.Context, includeInactive bool) ([]domain.Service, error) {
	var out []domain.Service
	for _, s := range f.services {
		if includeInactive || s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (*domain.Service, error) {
	for _, s := range f.services {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- customers ---

type customerUpsert struct {
	Name, Phone string
	CountVisit  bool
}

type fakeCustomers struct {
	mu      sync.Mutex
	upserts []customerUpsert
	err     error
}

func (f *fakeCustomers) Upsert(_ context.Context, name, phone string, countVisit bool, at time.Time) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.upserts = append(f.upserts, customerUpsert{Name: name, Phone: phone, CountVisit: countVisit})
	return &domain.Customer{Name: name, Phone: phone}, nil
}

// --- transactions ---

type fakeTransactions struct {
	mu         sync.Mutex
	txs        []domain.Transaction
	createErrs []error
	creates    int
	lastFilter repository.TransactionFilter
	updateErr  error
}

func (f *fakeTransactions) Create(_ context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	tx := domain.Transaction{
		ID:            int64(len(f.txs) + 1),
		InvoiceCode:   domain.InvoiceCode(in.At, len(f.txs)+1),
		Date:          in.At,
		BarberID:      in.BarberID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Items:         in.Items,
		TotalAmount:   in.TotalAmount,
		PaymentMethod: in.PaymentMethod,
	}
	f.txs = append(f.txs, tx)
	return &tx, nil
}

func (f *fakeTransactions) Update(_ context.Context, id int64, in repository.UpdateTransactionInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.txs {
		if f.txs[i].ID == id {
			f.txs[i].BarberID = in.BarberID
			f.txs[i].CustomerName = in.CustomerName
			f.txs[i].CustomerPhone = in.CustomerPhone
			f.txs[i].PaymentMethod = in.PaymentMethod
			f.txs[i].TotalAmount = in.TotalAmount
			f.txs[i].Items = in.Items
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeTransactions) Get(_ context.Context, id int64) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txs {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTransactions) List(_ context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	out := append([]domain.Transaction(nil), f.txs...)
	return out, nil
}

func (f *fakeTransactions) ListBetween(_ context.Context, start, end time.Time) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.txs {
		if !t.Date.Before(start) && t.Date.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- shifts ---

type fakeShifts struct {
	mu        sync.Mutex
	shifts    []domain.CashShift
	accrueErr error
}

func (f *fakeShifts) Open(_ context.Context, openedByID int64, startCash int64) (*domain.CashShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shifts {
		if s.Status == domain.ShiftOpen {
			return nil, repository.ErrShiftAlreadyOpen
		}
	}
	s := domain.CashShift{ID: int64(len(f.shifts) + 1), OpenedByID: openedByID, StartCash: startCash,
		Status: domain.ShiftOpen, StartTime: fixedNow()}
	f.shifts = append(f.shifts, s)
	return &s, nil
}

func (f *fakeShifts) Get(_ context.Context, id int64) (*domain.CashShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shifts {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeShifts) Current(_ context.Context) (*domain.CashShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shifts {
		if s.Status == domain.ShiftOpen {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeShifts) Close(_ context.Context, id int64, actualEndCash int64, closedByID int64) (*domain.CashShift, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.shifts {
		if f.shifts[i].ID != id {
			continue
		}
		if f.shifts[i].Status != domain.ShiftOpen {
			s := f.shifts[i]
			return &s, false, nil
		}
		end := fixedNow().Add(8 * time.Hour)
		f.shifts[i].Status = domain.ShiftClosed
		f.shifts[i].ActualEndCash = &actualEndCash
		f.shifts[i].ClosedByID = &closedByID
		f.shifts[i].EndTime = &end
		s := f.shifts[i]
		return &s, true, nil
	}
	return nil, false, repository.ErrNotFound
}

func (f *fakeShifts) Accrue(_ context.Context, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accrueErr != nil {
		return false, f.accrueErr
	}
	for i := range f.shifts {
		if f.shifts[i].Status == domain.ShiftOpen {
			f.shifts[i].TotalRevenue += amount
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeShifts) List(_ context.Context, status string, limit int) ([]domain.CashShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CashShift
	for _, s := range f.shifts {
		if status == "" || string(s.Status) == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShifts) Summary(_ context.Context, shift domain.CashShift) (domain.ShiftSummary, error) {
	return domain.ShiftSummary{ShiftID: shift.ID, TotalCash: shift.TotalRevenue}, nil
}

type fakeAccruer struct {
	mu      sync.Mutex
	amounts []int64
}

func (f *fakeAccruer) Accrue(_ context.Context, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
}

// --- bookings ---

type fakeBookings struct {
	mu        sync.Mutex
	bookings  []domain.Booking
	createErr error
}

func slotKey(barberID int64, date time.Time, slot string) string {
	return fmt.Sprintf("%d|%s|%s", barberID, date.Format("2006-01-02"), slot)
}

func (f *fakeBookings) active(barberID int64, date time.Time, slot string) bool {
	for _, b := range f.bookings {
		if slotKey(b.BarberID, b.BookingDate, b.TimeSlot) == slotKey(barberID, date, slot) &&
			(b.Status == domain.BookingPending || b.Status == domain.BookingConfirmed) {
			return true
		}
	}
	return false
}

func (f *fakeBookings) Create(_ context.Context, in repository.CreateBookingInput) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.active(in.BarberID, in.BookingDate, in.TimeSlot) {
		return nil, repository.ErrSlotTaken
	}
	b := domain.Booking{ID: int64(len(f.bookings) + 1), BarberID: in.BarberID, CustomerName: in.CustomerName,
		CustomerPhone: in.CustomerPhone, BookingDate: in.BookingDate, TimeSlot: in.TimeSlot, ServiceID: in.ServiceID,
		ServiceName: in.ServiceName, ServicePrice: in.ServicePrice, Status: domain.BookingPending, PaymentProof: in.PaymentProof}
	f.bookings = append(f.bookings, b)
	return &b, nil
}

func (f *fakeBookings) Get(_ context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) HasActive(_ context.Context, barberID int64, date time.Time, slot string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active(barberID, date, slot), nil
}

func (f *fakeBookings) TakenSlots(_ context.Context, barberID int64, date time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.bookings {
		if b.BarberID == barberID && b.BookingDate.Equal(date) &&
			(b.Status == domain.BookingPending || b.Status == domain.BookingConfirmed) {
			out = append(out, b.TimeSlot)
		}
	}
	return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id && f.bookings[i].Status == from {
			f.bookings[i].Status = to
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if filter.Phone != "" && b.CustomerPhone != filter.Phone {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeOffDays struct {
	off map[string]bool
}

func (f *fakeOffDays) IsOff(_ context.Context, barberID int64, date time.Time) (bool, error) {
	if f == nil || f.off == nil {
		return false, nil
	}
	return f.off[slotKey(barberID, date, "")], nil
}

// --- audit ---

type fakeAudit struct {
	mu      sync.Mutex
	entries []repository.CreateActivityLogInput
	err     error
}

func (f *fakeAudit) Create(_ context.Context, in repository.CreateActivityLogInput) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.entries = append(f.entries, in)
	return int64(len(f.entries)), nil
}

// --- outbox ---

type failedMark struct {
	ID     int64
	Cause  string
	Next   time.Time
	GiveUp bool
}

type fakeOutbox struct {
	mu         sync.Mutex
	messages   []domain.OutboxMessage
	enqueued   []repository.EnqueueInput
	sent       []int64
	failed     []failedMark
	enqueueErr error
	due        []domain.OutboxMessage
}

func (f *fakeOutbox) Enqueue(_ context.Context, in repository.EnqueueInput) (*domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return nil, f.enqueueErr
	}
	f.enqueued = append(f.enqueued, in)
	m := domain.OutboxMessage{ID: int64(len(f.enqueued)), Kind: in.Kind, Phone: in.Phone, Message: in.Message,
		Status: domain.OutboxPending}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeOutbox) ClaimDue(_ context.Context, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.due
	f.due = nil
	return out, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id int64, cause string, next time.Time, giveUp bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, failedMark{ID: id, Cause: cause, Next: next, GiveUp: giveUp})
	return nil
}

func (f *fakeOutbox) Get(_ context.Context, id int64) (*domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOutbox) List(_ context.Context, status string, limit int) ([]domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OutboxMessage(nil), f.messages...), nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, phone)
	return nil
}

type fakeLocker struct {
	err      error
	released int
}

func (f *fakeLocker) Obtain(_ context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeLease{f}, nil
}

type fakeLease struct{ l *fakeLocker }

func (l fakeLease) Release(context.Context) error {
	l.l.released++
	return nil
}

// --- proofs ---

type fakeProofs struct {
	saved []string
	err   error
}

func (f *fakeProofs) Save(_ context.Context, name, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, name)
	return "https://cdn.test/" + name, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 20))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

var errBoom = errors.New("boom")

func strp(s string) *string { return &s }
