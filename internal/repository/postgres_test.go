package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/config"
	"github.com/nicolaananda/barber-pos-sub000/internal/db"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// These tests need a disposable Postgres database; every table is truncated.
func testDB(t *testing.T) *db.Postgres {
	t.Helper()
	url := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("set TEST_DATABASE_URL to run database tests")
	}
	ctx := context.Background()
	pg, err := db.New(ctx, config.Config{DatabaseURL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pg.Close)
	if err := pg.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pg.Pool.Exec(ctx, `
		TRUNCATE users, services, customers, transactions, transaction_items, invoice_counters,
			cash_shifts, bookings, off_days, expenses, capital_entries, activity_logs, outbox_messages
		RESTART IDENTITY CASCADE
	`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pg
}

func createBarber(t *testing.T, pg *db.Postgres, name string) *domain.User {
	t.Helper()
	u, err := UserRepository{DB: pg}.Create(context.Background(), SaveUserParams{
		Name: name, Email: strings.ToLower(name) + "@shop.id", Role: domain.RoleBarber, Active: true,
	})
	if err != nil {
		t.Fatalf("create barber: %v", err)
	}
	return u
}

var settledAt = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func cashSale(barberID int64) CreateTransactionInput {
	return CreateTransactionInput{
		BarberID:      barberID,
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   40000,
		Items:         []domain.TransactionItem{{Name: "Haircut", Price: 40000, Qty: 1}},
		At:            settledAt,
	}
}

func TestInvoiceCodesAreGapless(t *testing.T) {
	pg := testDB(t)
	barber := createBarber(t, pg, "Andi")
	repo := TransactionRepository{DB: pg, Sequencer: InvoiceSequencer{Location: time.UTC}}

	for i, want := range []string{"INV-250115-001", "INV-250115-002", "INV-250115-003"} {
		tx, err := repo.Create(context.Background(), cashSale(barber.ID))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if tx.InvoiceCode != want {
			t.Fatalf("create %d: code %s, want %s", i, tx.InvoiceCode, want)
		}
	}
}

func TestInvoiceSequencerSkipsStoredCodes(t *testing.T) {
	pg := testDB(t)
	ctx := context.Background()
	barber := createBarber(t, pg, "Andi")

	// 001 and 003 stored with the counter still at 2: the next plain
	// increment would collide with 003 on every attempt.
	for _, code := range []string{"INV-250115-001", "INV-250115-003"} {
		if _, err := pg.Pool.Exec(ctx, `
			INSERT INTO transactions (invoice_code, transacted_at, barber_id, total_amount, payment_method)
			VALUES ($1, $2, $3, 40000, 'cash')
		`, code, settledAt, barber.ID); err != nil {
			t.Fatalf("seed %s: %v", code, err)
		}
	}
	if _, err := pg.Pool.Exec(ctx, `INSERT INTO invoice_counters (day, last_seq) VALUES ('2025-01-15', 2)`); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	repo := TransactionRepository{DB: pg, Sequencer: InvoiceSequencer{Location: time.UTC}}
	tx, err := repo.Create(ctx, cashSale(barber.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.InvoiceCode != "INV-250115-004" {
		t.Fatalf("expected INV-250115-004, got %s", tx.InvoiceCode)
	}

	next, err := repo.Create(ctx, cashSale(barber.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if next.InvoiceCode != "INV-250115-005" {
		t.Fatalf("expected INV-250115-005, got %s", next.InvoiceCode)
	}
}

func TestConcurrentSettlementsGetDistinctCodes(t *testing.T) {
	pg := testDB(t)
	barber := createBarber(t, pg, "Andi")
	repo := TransactionRepository{DB: pg, Sequencer: InvoiceSequencer{Location: time.UTC}}

	const n = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]bool{}
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := repo.Create(context.Background(), cashSale(barber.ID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			codes[tx.InvoiceCode] = true
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("settlements failed: %v", errs)
	}
	for seq := 1; seq <= n; seq++ {
		if code := domain.InvoiceCode(settledAt, seq); !codes[code] {
			t.Fatalf("missing %s in %v", code, codes)
		}
	}
}

func TestOnlyOneShiftOpens(t *testing.T) {
	pg := testDB(t)
	ctx := context.Background()
	cashier := createBarber(t, pg, "Sari")
	repo := ShiftRepository{DB: pg}

	const n = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		opened  int
		refused int
		other   []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Open(ctx, cashier.ID, 100000)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				opened++
			case errors.Is(err, ErrShiftAlreadyOpen):
				refused++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 || opened != 1 || refused != n-1 {
		t.Fatalf("opened=%d refused=%d other=%v", opened, refused, other)
	}

	current, err := repo.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if _, changed, err := repo.Close(ctx, current.ID, 100000, cashier.ID); err != nil || !changed {
		t.Fatalf("close: changed=%v err=%v", changed, err)
	}
	if _, changed, err := repo.Close(ctx, current.ID, 100000, cashier.ID); err != nil || changed {
		t.Fatalf("second close must not change the row: changed=%v err=%v", changed, err)
	}
	if _, err := repo.Open(ctx, cashier.ID, 50000); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}

func TestActiveSlotHoldsOneBooking(t *testing.T) {
	pg := testDB(t)
	ctx := context.Background()
	barber := createBarber(t, pg, "Andi")
	repo := BookingRepository{DB: pg}
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	in := CreateBookingInput{
		BarberID:      barber.ID,
		CustomerName:  "Rina",
		CustomerPhone: "+6281234567890",
		BookingDate:   day,
		TimeSlot:      "14:00 - 15:00",
		PaymentProof:  "https://cdn.test/proofs/a.jpg",
	}

	const n = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []int64
		taken   int
		other   []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := repo.Create(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created = append(created, b.ID)
			case errors.Is(err, ErrSlotTaken):
				taken++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 || len(created) != 1 || taken != n-1 {
		t.Fatalf("created=%v taken=%d other=%v", created, taken, other)
	}
	first := created[0]

	held, err := repo.HasActive(ctx, barber.ID, day, in.TimeSlot)
	if err != nil || !held {
		t.Fatalf("expected slot held: %v %v", held, err)
	}
	slots, err := repo.TakenSlots(ctx, barber.ID, day)
	if err != nil || len(slots) != 1 || slots[0] != "14:00 - 15:00" {
		t.Fatalf("unexpected taken slots %v %v", slots, err)
	}

	if _, err := repo.UpdateStatus(ctx, first, domain.BookingPending, domain.BookingCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := repo.Create(ctx, in); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, first, domain.BookingCancelled, domain.BookingPending); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("reviving the cancelled booking must hit the slot index, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, first, domain.BookingPending, domain.BookingConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale status must report ErrNotFound, got %v", err)
	}
}
