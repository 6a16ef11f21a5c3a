package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/metrics"
	"github.com/nicolaananda/barber-pos-sub000/internal/phone"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// maxInvoiceAttempts bounds retries after an invoice code collision.
const maxInvoiceAttempts = 3

// Accruer receives settled revenue for the open shift.
type Accruer interface {
	Accrue(ctx context.Context, amount int64)
}

// TransactionService settles carts into invoices and handles follow-ups on
// existing invoices (WhatsApp receipt, audited correction).
type TransactionService struct {
	Transactions TransactionStore
	Users        UserStore
	Shifts       Accruer
	Audit        ActivityLogStore
	Outbox       *OutboxService
	Location     *time.Location
	ShopName     string
	Logger       *slog.Logger
	Now          func() time.Time
}

type SettleInput struct {
	BarberID      int64
	Items         []domain.TransactionItem
	TotalAmount   int64
	PaymentMethod domain.PaymentMethod
	CustomerName  *string
	CustomerPhone *string
}

type CorrectionInput struct {
	SettleInput
	Reason string
}

type TransactionQuery struct {
	Date  *time.Time
	Phone string
	Limit int
}

// Settle validates the cart and persists it as a transaction. Customer upsert,
// invoice numbering and the insert share one database transaction; shift
// accrual runs after commit and never fails the settlement.
func (s TransactionService) Settle(ctx context.Context, in SettleInput) (*domain.Transaction, error) {
	barber, err := s.activeBarber(ctx, in.BarberID)
	if err != nil {
		return nil, err
	}
	items, err := validateCart(in.Items, in.TotalAmount, in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	name, phoneNumber, err := normalizeCustomer(in.CustomerName, in.CustomerPhone)
	if err != nil {
		return nil, err
	}

	create := repository.CreateTransactionInput{
		BarberID:      barber.ID,
		CustomerName:  name,
		CustomerPhone: phoneNumber,
		PaymentMethod: in.PaymentMethod,
		TotalAmount:   in.TotalAmount,
		Items:         items,
		At:            s.now(),
	}

	var tx *domain.Transaction
	for attempt := 1; attempt <= maxInvoiceAttempts; attempt++ {
		tx, err = s.Transactions.Create(ctx, create)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateInvoice) {
			return nil, domain.PersistenceError("save transaction", err)
		}
		s.logger().Warn("invoice code collision, retrying", "attempt", attempt)
	}
	if err != nil {
		return nil, domain.ConflictError("Could not allocate an invoice number, please retry")
	}
	tx.BarberName = barber.Name

	metrics.Settlements.WithLabelValues(string(tx.PaymentMethod)).Inc()
	metrics.SettlementAmount.WithLabelValues(string(tx.PaymentMethod)).Add(float64(tx.TotalAmount))

	if s.Shifts != nil {
		s.Shifts.Accrue(context.WithoutCancel(ctx), tx.TotalAmount)
	}
	return tx, nil
}

// SendInvoice queues the receipt for the transaction's customer and tries to
// deliver it immediately. Delivery failures never touch the transaction.
func (s TransactionService) SendInvoice(ctx context.Context, id int64) (*Delivery, error) {
	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.CustomerPhone == nil || strings.TrimSpace(*tx.CustomerPhone) == "" {
		return nil, domain.ValidationError("Transaction has no customer phone")
	}
	res, err := s.Outbox.SendNow(ctx, "invoice", *tx.CustomerPhone, FormatInvoiceMessage(s.ShopName, *tx, s.Location))
	if err != nil {
		return nil, err
	}
	if !res.Delivered {
		s.logger().Warn("invoice delivery failed", "transaction_id", id, "error", res.Error)
	}
	return &res, nil
}

func (s TransactionService) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	tx, err := s.Transactions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Transaction not found")
		}
		return nil, domain.PersistenceError("load transaction", err)
	}
	return tx, nil
}

// List filters by local calendar day and customer phone, newest first.
func (s TransactionService) List(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error) {
	f := repository.TransactionFilter{Limit: q.Limit}
	if q.Date != nil {
		day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 12, 0, 0, 0, s.location())
		start, end := domain.DayBounds(day, s.location())
		f.Start, f.End = &start, &end
	}
	if p := strings.TrimSpace(q.Phone); p != "" {
		if normalized, err := phone.Normalize(p); err == nil {
			p = normalized
		}
		f.Phone = p
	}
	txs, err := s.Transactions.List(ctx, f)
	if err != nil {
		return nil, domain.PersistenceError("list transactions", err)
	}
	return txs, nil
}

type transactionSnapshot struct {
	BarberID      int64                    `json:"barberId"`
	CustomerName  *string                  `json:"customerName"`
	CustomerPhone *string                  `json:"customerPhone"`
	PaymentMethod domain.PaymentMethod     `json:"paymentMethod"`
	TotalAmount   int64                    `json:"totalAmount"`
	Items         []transactionItemSummary `json:"items"`
}

type transactionItemSummary struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int    `json:"qty"`
}

func snapshotOf(tx domain.Transaction) *string {
	snap := transactionSnapshot{
		BarberID:      tx.BarberID,
		CustomerName:  tx.CustomerName,
		CustomerPhone: tx.CustomerPhone,
		PaymentMethod: tx.PaymentMethod,
		TotalAmount:   tx.TotalAmount,
	}
	for _, it := range tx.Items {
		snap.Items = append(snap.Items, transactionItemSummary{Name: it.Name, Price: it.Price, Qty: it.Qty})
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	out := string(raw)
	return &out
}

// Correct rewrites an invoice on behalf of an admin and records the before
// and after state in the activity log. The invoice code and date are kept and
// shift revenue is not re-derived.
func (s TransactionService) Correct(ctx context.Context, actor string, id int64, in CorrectionInput) (*domain.Transaction, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.ValidationError("reason is required")
	}
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	barber, err := s.activeBarber(ctx, in.BarberID)
	if err != nil {
		return nil, err
	}
	items, err := validateCart(in.Items, in.TotalAmount, in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	name, phoneNumber, err := normalizeCustomer(in.CustomerName, in.CustomerPhone)
	if err != nil {
		return nil, err
	}

	err = s.Transactions.Update(ctx, id, repository.UpdateTransactionInput{
		BarberID:      barber.ID,
		CustomerName:  name,
		CustomerPhone: phoneNumber,
		PaymentMethod: in.PaymentMethod,
		TotalAmount:   in.TotalAmount,
		Items:         items,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Transaction not found")
		}
		return nil, domain.PersistenceError("update transaction", err)
	}
	after, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entityID := id
	_, err = s.Audit.Create(context.WithoutCancel(ctx), repository.CreateActivityLogInput{
		Title:      "Transaction corrected",
		Message:    fmt.Sprintf("%s: %s", after.InvoiceCode, reason),
		Actor:      actor,
		Type:       domain.LogWarning,
		EntityType: "transaction",
		EntityID:   &entityID,
		OldValue:   snapshotOf(*before),
		NewValue:   snapshotOf(*after),
		Timestamp:  s.now(),
	})
	if err != nil {
		s.logger().Error("audit log write failed", "transaction_id", id, "actor", actor, "error", err)
	}
	return after, nil
}

func (s TransactionService) activeBarber(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, domain.ValidationError("barberId is required")
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ValidationError("Invalid barberId")
		}
		return nil, domain.PersistenceError("load barber", err)
	}
	if !u.Active {
		return nil, domain.ValidationError("Barber is not active")
	}
	return u, nil
}

// validateCart checks line items, the payment method and that the total
// equals Σ price×qty. It returns the items with trimmed names.
func validateCart(items []domain.TransactionItem, total int64, method domain.PaymentMethod) ([]domain.TransactionItem, error) {
	if len(items) == 0 {
		return nil, domain.ValidationError("items must not be empty")
	}
	out := make([]domain.TransactionItem, 0, len(items))
	for i, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, domain.ValidationError("items[%d].name is required", i)
		}
		if it.Qty < 1 {
			return nil, domain.ValidationError("items[%d].qty must be at least 1", i)
		}
		if it.Price < 0 {
			return nil, domain.ValidationError("items[%d].price must not be negative", i)
		}
		out = append(out, it)
	}
	if sum := domain.ItemsTotal(out); sum != total {
		return nil, domain.ValidationError("totalAmount %d does not match items total %d", total, sum)
	}
	if !method.Valid() {
		return nil, domain.ValidationError("paymentMethod must be cash or qris")
	}
	return out, nil
}

// normalizeCustomer trims the optional customer fields and normalizes the
// phone. Empty values become nil.
func normalizeCustomer(name, rawPhone *string) (*string, *string, error) {
	var outName, outPhone *string
	if name != nil {
		if v := strings.TrimSpace(*name); v != "" {
			outName = &v
		}
	}
	if rawPhone != nil && strings.TrimSpace(*rawPhone) != "" {
		p, err := phone.Normalize(*rawPhone)
		if err != nil {
			return nil, nil, domain.ValidationError("Invalid customer phone")
		}
		outPhone = &p
	}
	return outName, outPhone, nil
}

func (s TransactionService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s TransactionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s TransactionService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
