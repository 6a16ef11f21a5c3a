package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
)

type stubShifts struct {
	open     *domain.CashShift
	closedBy int64
	reported *int64
}

func (s *stubShifts) Open(_ context.Context, userID int64, startCash int64) (*domain.CashShift, error) {
	if s.open != nil {
		return nil, domain.ConflictError("A shift is already open")
	}
	s.open = &domain.CashShift{ID: 1, OpenedByID: userID, StartCash: startCash, Status: domain.ShiftOpen, StartTime: time.Now()}
	return s.open, nil
}

func (s *stubShifts) Close(_ context.Context, id int64, actualEndCash int64, closedByID int64, reported *int64) (*service.ShiftClosing, error) {
	if s.open == nil || s.open.ID != id {
		return nil, domain.NotFoundError("Shift not found")
	}
	s.closedBy, s.reported = closedByID, reported
	closed := *s.open
	closed.Status = domain.ShiftClosed
	closed.ActualEndCash = &actualEndCash
	closed.ClosedByID = &closedByID
	expected := closed.ExpectedCash()
	return &service.ShiftClosing{Shift: closed, ExpectedCash: expected, Difference: actualEndCash - expected}, nil
}

func (s *stubShifts) Current(context.Context) (*domain.CashShift, error) {
	if s.open == nil {
		return nil, domain.NotFoundError("No open shift")
	}
	return s.open, nil
}

func (s *stubShifts) List(context.Context, string) ([]domain.CashShift, error) { return nil, nil }

func (s *stubShifts) Summary(context.Context, int64) (*domain.ShiftSummary, error) {
	return nil, domain.NotFoundError("Shift not found")
}

func TestShiftLifecycle(t *testing.T) {
	stub := &stubShifts{}
	h := newRouter(func(r chi.Router) { ShiftHandler{Service: stub}.RegisterRoutes(r) })

	rec, env := doJSON(t, h, http.MethodGet, "/shifts/current", "")
	if rec.Code != http.StatusNotFound || env.Error.Kind != "not_found" {
		t.Fatalf("expected 404 before opening, got %d", rec.Code)
	}

	rec, env = doJSON(t, h, http.MethodPost, "/shifts", `{"openingCash":100000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", rec.Code, rec.Body.String())
	}
	if data := dataMap(t, env); data["startCash"] != float64(100000) || data["status"] != "open" {
		t.Fatalf("unexpected shift %v", data)
	}

	rec, env = doJSON(t, h, http.MethodPost, "/shifts", `{"openingCash":5}`)
	if rec.Code != http.StatusConflict || env.Error.Kind != "conflict" {
		t.Fatalf("expected 409 for second open shift, got %d", rec.Code)
	}

	stub.open.TotalRevenue = 80000
	rec, env = doJSON(t, h, http.MethodPatch, "/shifts/1", `{"closingCash":170000,"totalSystemRevenue":999}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: %d %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, env)
	if data["expectedCash"] != float64(180000) || data["difference"] != float64(-10000) {
		t.Fatalf("unexpected closing %v", data)
	}
	if stub.closedBy != 1 {
		t.Fatalf("closedBy should default to the caller, got %d", stub.closedBy)
	}
	if stub.reported == nil || *stub.reported != 999 {
		t.Fatalf("reported revenue not forwarded")
	}
}

func TestCloseShiftRejectsNegativeCash(t *testing.T) {
	h := newRouter(func(r chi.Router) { ShiftHandler{Service: &stubShifts{}}.RegisterRoutes(r) })
	rec, env := doJSON(t, h, http.MethodPatch, "/shifts/1", `{"closingCash":-1}`)
	if rec.Code != http.StatusBadRequest || env.Error.Kind != "validation" {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
