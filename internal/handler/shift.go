package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/server/authctx"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
)

// Shifts is implemented by service.ShiftService.
type Shifts interface {
	Open(ctx context.Context, userID int64, startCash int64) (*domain.CashShift, error)
	Close(ctx context.Context, id int64, actualEndCash int64, closedByID int64, reportedRevenue *int64) (*service.ShiftClosing, error)
	Current(ctx context.Context) (*domain.CashShift, error)
	List(ctx context.Context, status string) ([]domain.CashShift, error)
	Summary(ctx context.Context, id int64) (*domain.ShiftSummary, error)
}

type ShiftHandler struct {
	Service Shifts
}

func (h ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shifts", h.open)
	r.Get("/shifts", h.list)
	r.Get("/shifts/current", h.current)
	r.Patch("/shifts/{id}", h.close)
	r.Get("/shifts/{id}/summary", h.summary)
}

func (h ShiftHandler) open(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		OpeningCash int64 `json:"openingCash" validate:"gte=0"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	shift, err := h.Service.Open(r.Context(), user.ID, req.OpeningCash)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shiftPayload(*shift))
}

func (h ShiftHandler) close(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		ClosingCash        int64  `json:"closingCash" validate:"gte=0"`
		ClosedBy           *int64 `json:"closedBy"`
		TotalSystemRevenue *int64 `json:"totalSystemRevenue"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	closedBy := user.ID
	if req.ClosedBy != nil && *req.ClosedBy > 0 {
		closedBy = *req.ClosedBy
	}
	res, err := h.Service.Close(r.Context(), id, req.ClosingCash, closedBy, req.TotalSystemRevenue)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload := shiftPayload(res.Shift)
	payload["expectedCash"] = res.ExpectedCash
	payload["difference"] = res.Difference
	writeJSON(w, http.StatusOK, payload)
}

func (h ShiftHandler) current(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Service.Current(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shiftPayload(*shift))
}

func (h ShiftHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, shiftPayload(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ShiftHandler) summary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	sum, err := h.Service.Summary(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shiftId":      strconv.FormatInt(sum.ShiftID, 10),
		"totalCash":    sum.TotalCash,
		"totalQris":    sum.TotalQRIS,
		"transactions": sum.Transactions,
	})
}

func shiftPayload(s domain.CashShift) map[string]any {
	out := map[string]any{
		"id":            strconv.FormatInt(s.ID, 10),
		"openedBy":      map[string]any{"id": strconv.FormatInt(s.OpenedByID, 10), "name": s.OpenedByName},
		"startCash":     s.StartCash,
		"totalRevenue":  s.TotalRevenue,
		"expectedCash":  s.ExpectedCash(),
		"actualEndCash": s.ActualEndCash,
		"status":        string(s.Status),
		"startTime":     s.StartTime.UTC().Format(time.RFC3339),
		"endTime":       nil,
	}
	if s.EndTime != nil {
		out["endTime"] = s.EndTime.UTC().Format(time.RFC3339)
	}
	if s.ClosedByID != nil {
		out["closedBy"] = strconv.FormatInt(*s.ClosedByID, 10)
	}
	return out
}
