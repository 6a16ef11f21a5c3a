package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

func newSettlement(t *testing.T) (TransactionService, *fakeTransactions, *fakeAccruer, *fakeOutbox, *fakeNotifier, *fakeAudit) {
	t.Helper()
	users := newFakeUsers(
		domain.User{ID: 1, Name: "Andi", Role: domain.RoleBarber, Active: true},
		domain.User{ID: 2, Name: "Budi", Role: domain.RoleBarber, Active: false},
	)
	txs := &fakeTransactions{}
	acc := &fakeAccruer{}
	ob := &fakeOutbox{}
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	svc := TransactionService{
		Transactions: txs,
		Users:        users,
		Shifts:       acc,
		Audit:        audit,
		Outbox:       &OutboxService{Store: ob, Notifier: notifier, Logger: quietLogger(), Now: fixedNow},
		ShopName:     "Barbershop",
		Logger:       quietLogger(),
		Now:          fixedNow,
	}
	return svc, txs, acc, ob, notifier, audit
}

func cart() []domain.TransactionItem {
	return []domain.TransactionItem{
		{Name: "Haircut", Price: 40000, Qty: 1},
		{Name: "Hair wash", Price: 10000, Qty: 2},
	}
}

func TestSettlePersistsAndAccrues(t *testing.T) {
	svc, txs, acc, _, _, _ := newSettlement(t)
	tx, err := svc.Settle(context.Background(), SettleInput{
		BarberID:      1,
		Items:         cart(),
		TotalAmount:   60000,
		PaymentMethod: domain.PaymentCash,
		CustomerName:  strp(" Rina "),
		CustomerPhone: strp("0812-3456-7890"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.InvoiceCode != "INV-250101-001" {
		t.Fatalf("unexpected invoice code %q", tx.InvoiceCode)
	}
	if tx.BarberName != "Andi" {
		t.Fatalf("expected barber name to be set, got %q", tx.BarberName)
	}
	if tx.CustomerPhone == nil || *tx.CustomerPhone != "+6281234567890" {
		t.Fatalf("expected normalized phone, got %v", tx.CustomerPhone)
	}
	if tx.CustomerName == nil || *tx.CustomerName != "Rina" {
		t.Fatalf("expected trimmed name, got %v", tx.CustomerName)
	}
	if len(txs.txs) != 1 {
		t.Fatalf("expected one stored transaction, got %d", len(txs.txs))
	}
	if len(acc.amounts) != 1 || acc.amounts[0] != 60000 {
		t.Fatalf("expected accrual of 60000, got %v", acc.amounts)
	}
}

func TestSettleWithoutCustomer(t *testing.T) {
	svc, _, _, _, _, _ := newSettlement(t)
	tx, err := svc.Settle(context.Background(), SettleInput{
		BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentQRIS,
		CustomerName: strp(""), CustomerPhone: nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.CustomerName != nil || tx.CustomerPhone != nil {
		t.Fatalf("expected no customer on transaction")
	}
}

func TestSettleValidation(t *testing.T) {
	cases := []struct {
		name string
		in   SettleInput
	}{
		{"unknown barber", SettleInput{BarberID: 99, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}},
		{"inactive barber", SettleInput{BarberID: 2, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}},
		{"missing barber", SettleInput{Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}},
		{"empty cart", SettleInput{BarberID: 1, TotalAmount: 0, PaymentMethod: domain.PaymentCash}},
		{"total mismatch", SettleInput{BarberID: 1, Items: cart(), TotalAmount: 59000, PaymentMethod: domain.PaymentCash}},
		{"zero qty", SettleInput{BarberID: 1, Items: []domain.TransactionItem{{Name: "Haircut", Price: 40000, Qty: 0}}, TotalAmount: 0, PaymentMethod: domain.PaymentCash}},
		{"negative price", SettleInput{BarberID: 1, Items: []domain.TransactionItem{{Name: "Haircut", Price: -1, Qty: 1}}, TotalAmount: -1, PaymentMethod: domain.PaymentCash}},
		{"blank item name", SettleInput{BarberID: 1, Items: []domain.TransactionItem{{Name: " ", Price: 1, Qty: 1}}, TotalAmount: 1, PaymentMethod: domain.PaymentCash}},
		{"bad method", SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: "card"}},
		{"bad phone", SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash, CustomerName: strp("Rina"), CustomerPhone: strp("12")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, txs, acc, _, _, _ := newSettlement(t)
			_, err := svc.Settle(context.Background(), tc.in)
			if !domain.IsKind(err, domain.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if txs.creates != 0 || len(acc.amounts) != 0 {
				t.Fatalf("nothing should be written on validation failure")
			}
		})
	}
}

func TestSettleRetriesInvoiceCollision(t *testing.T) {
	svc, txs, acc, _, _, _ := newSettlement(t)
	txs.createErrs = []error{repository.ErrDuplicateInvoice, nil}
	if _, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txs.creates != 2 {
		t.Fatalf("expected 2 attempts, got %d", txs.creates)
	}
	if len(acc.amounts) != 1 {
		t.Fatalf("expected exactly one accrual, got %d", len(acc.amounts))
	}
}

func TestSettleGivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, txs, acc, _, _, _ := newSettlement(t)
	txs.createErrs = []error{repository.ErrDuplicateInvoice, repository.ErrDuplicateInvoice, repository.ErrDuplicateInvoice}
	_, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if txs.creates != maxInvoiceAttempts {
		t.Fatalf("expected %d attempts, got %d", maxInvoiceAttempts, txs.creates)
	}
	if len(acc.amounts) != 0 {
		t.Fatalf("no accrual expected")
	}
}

func TestSettlePersistenceFailure(t *testing.T) {
	svc, txs, _, _, _, _ := newSettlement(t)
	txs.createErrs = []error{errBoom}
	_, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
	if !domain.IsKind(err, domain.KindPersistence) || !errors.Is(err, errBoom) {
		t.Fatalf("expected persistence error wrapping cause, got %v", err)
	}
	if txs.creates != 1 {
		t.Fatalf("persistence errors must not be retried")
	}
}

func TestSettleSucceedsWhenAccrualFails(t *testing.T) {
	shifts := &fakeShifts{accrueErr: errBoom}
	svc, _, _, _, _, _ := newSettlement(t)
	svc.Shifts = ShiftService{Store: shifts, Logger: quietLogger()}
	if _, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}); err != nil {
		t.Fatalf("accrual failure must not fail settlement: %v", err)
	}
}

func TestSettleSequentialInvoiceCodes(t *testing.T) {
	svc, _, _, _, _, _ := newSettlement(t)
	for i, want := range []string{"INV-250101-001", "INV-250101-002", "INV-250101-003"} {
		tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
		if err != nil {
			t.Fatalf("settle %d: %v", i, err)
		}
		if tx.InvoiceCode != want {
			t.Fatalf("settle %d: got %q want %q", i, tx.InvoiceCode, want)
		}
	}
}

func TestSendInvoice(t *testing.T) {
	svc, _, _, ob, notifier, _ := newSettlement(t)
	tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000,
		PaymentMethod: domain.PaymentCash, CustomerName: strp("Rina"), CustomerPhone: strp("081234567890")})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	res, err := svc.SendInvoice(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Queued || !res.Delivered {
		t.Fatalf("expected queued and delivered, got %+v", res)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "+6281234567890" {
		t.Fatalf("unexpected sends %v", notifier.sent)
	}
	if len(ob.enqueued) != 1 || !strings.Contains(ob.enqueued[0].Message, tx.InvoiceCode) {
		t.Fatalf("expected receipt with invoice code to be queued")
	}
	if ob.enqueued[0].Delay <= 0 {
		t.Fatalf("immediate sends must be held back from the dispatcher")
	}
	if len(ob.sent) != 1 {
		t.Fatalf("expected message marked sent")
	}
}

func TestSendInvoiceDeliveryFailureIsReported(t *testing.T) {
	svc, txs, _, ob, notifier, _ := newSettlement(t)
	notifier.err = errBoom
	tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000,
		PaymentMethod: domain.PaymentCash, CustomerName: strp("Rina"), CustomerPhone: strp("081234567890")})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	res, err := svc.SendInvoice(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("delivery failure must not be an error: %v", err)
	}
	if !res.Queued || res.Delivered || res.Error == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(ob.failed) != 1 || ob.failed[0].GiveUp {
		t.Fatalf("expected one retryable failure, got %+v", ob.failed)
	}
	if stored, _ := txs.Get(context.Background(), tx.ID); stored.TotalAmount != 60000 {
		t.Fatalf("transaction must be untouched")
	}
}

func TestSendInvoiceErrors(t *testing.T) {
	svc, _, _, _, _, _ := newSettlement(t)
	if _, err := svc.SendInvoice(context.Background(), 42); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := svc.SendInvoice(context.Background(), tx.ID); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for missing phone, got %v", err)
	}
}

func TestCorrectWritesAudit(t *testing.T) {
	svc, _, _, _, _, audit := newSettlement(t)
	tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	updated, err := svc.Correct(context.Background(), "owner@shop.id", tx.ID, CorrectionInput{
		SettleInput: SettleInput{
			BarberID:      1,
			Items:         []domain.TransactionItem{{Name: "Haircut", Price: 40000, Qty: 1}},
			TotalAmount:   40000,
			PaymentMethod: domain.PaymentQRIS,
		},
		Reason: "wash was not done",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalAmount != 40000 || updated.PaymentMethod != domain.PaymentQRIS {
		t.Fatalf("transaction not updated: %+v", updated)
	}
	if updated.InvoiceCode != tx.InvoiceCode {
		t.Fatalf("invoice code must not change")
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	e := audit.entries[0]
	if e.Actor != "owner@shop.id" || e.EntityType != "transaction" || e.EntityID == nil || *e.EntityID != tx.ID {
		t.Fatalf("unexpected audit entry %+v", e)
	}
	if e.OldValue == nil || !strings.Contains(*e.OldValue, `"totalAmount":60000`) {
		t.Fatalf("old value missing: %v", e.OldValue)
	}
	if e.NewValue == nil || !strings.Contains(*e.NewValue, `"totalAmount":40000`) {
		t.Fatalf("new value missing: %v", e.NewValue)
	}
}

func TestCorrectRequiresReasonAndValidTotal(t *testing.T) {
	svc, _, _, _, _, audit := newSettlement(t)
	tx, err := svc.Settle(context.Background(), SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	in := CorrectionInput{SettleInput: SettleInput{BarberID: 1, Items: cart(), TotalAmount: 60000, PaymentMethod: domain.PaymentCash}}
	if _, err := svc.Correct(context.Background(), "admin", tx.ID, in); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error without reason, got %v", err)
	}
	in.Reason = "typo"
	in.TotalAmount = 1
	if _, err := svc.Correct(context.Background(), "admin", tx.ID, in); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for mismatched total, got %v", err)
	}
	if _, err := svc.Correct(context.Background(), "admin", 999, CorrectionInput{Reason: "x"}); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("no audit entries expected")
	}
}

func TestListUsesLocalDayAndNormalizedPhone(t *testing.T) {
	svc, txs, _, _, _, _ := newSettlement(t)
	day := fixedNow()
	if _, err := svc.List(context.Background(), TransactionQuery{Date: &day, Phone: "0812 3456 7890"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := txs.lastFilter
	if f.Start == nil || f.End == nil || f.End.Sub(*f.Start).Hours() != 24 {
		t.Fatalf("expected a one-day window, got %+v", f)
	}
	if f.Phone != "+6281234567890" {
		t.Fatalf("expected normalized phone filter, got %q", f.Phone)
	}
}
