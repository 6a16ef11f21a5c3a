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

// Settlement is implemented by service.TransactionService.
type Settlement interface {
	Settle(ctx context.Context, in service.SettleInput) (*domain.Transaction, error)
	SendInvoice(ctx context.Context, id int64) (*service.Delivery, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	List(ctx context.Context, q service.TransactionQuery) ([]domain.Transaction, error)
	Correct(ctx context.Context, actor string, id int64, in service.CorrectionInput) (*domain.Transaction, error)
}

type TransactionHandler struct {
	Service  Settlement
	Location *time.Location
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.create)
	r.Get("/transactions", h.list)
	r.Get("/transactions/{id}", h.get)
	r.Post("/transactions/{id}/send-whatsapp", h.sendWhatsApp)
}

// RegisterAdminRoutes mounts the audited correction endpoint.
func (h TransactionHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/transactions/{id}", h.correct)
}

type cartLine struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
	Qty   int    `json:"qty" validate:"gte=1"`
}

type cartPayload struct {
	BarberID      int64      `json:"barberId" validate:"required"`
	Items         []cartLine `json:"items" validate:"required,min=1,dive"`
	TotalAmount   int64      `json:"totalAmount" validate:"gte=0"`
	PaymentMethod string     `json:"paymentMethod" validate:"required,oneof=cash qris"`
	CustomerName  *string    `json:"customerName"`
	CustomerPhone *string    `json:"customerPhone"`
}

func (p cartPayload) input() service.SettleInput {
	items := make([]domain.TransactionItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, domain.TransactionItem{Name: it.Name, Price: it.Price, Qty: it.Qty})
	}
	return service.SettleInput{
		BarberID:      p.BarberID,
		Items:         items,
		TotalAmount:   p.TotalAmount,
		PaymentMethod: domain.PaymentMethod(p.PaymentMethod),
		CustomerName:  p.CustomerName,
		CustomerPhone: p.CustomerPhone,
	}
}

func (h TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req cartPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.Service.Settle(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionPayload(*tx, h.Location))
}

func (h TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	txs, err := h.Service.List(r.Context(), service.TransactionQuery{
		Date:  date,
		Phone: r.URL.Query().Get("phone"),
		Limit: queryInt(r, "limit", 200),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		resp = append(resp, transactionPayload(t, h.Location))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h TransactionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tx, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionPayload(*tx, h.Location))
}

func (h TransactionHandler) sendWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	res, err := h.Service.SendInvoice(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h TransactionHandler) correct(w http.ResponseWriter, r *http.Request) {
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
		cartPayload
		Reason string `json:"reason" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.Service.Correct(r.Context(), user.Actor(), id, service.CorrectionInput{
		SettleInput: req.input(),
		Reason:      req.Reason,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionPayload(*tx, h.Location))
}

// transactionPayload keeps barberId as an object so clients written against
// a populated reference keep working.
func transactionPayload(t domain.Transaction, loc *time.Location) map[string]any {
	if loc == nil {
		loc = time.UTC
	}
	items := make([]map[string]any, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, map[string]any{
			"name":  it.Name,
			"price": it.Price,
			"qty":   it.Qty,
		})
	}
	return map[string]any{
		"id":          strconv.FormatInt(t.ID, 10),
		"invoiceCode": t.InvoiceCode,
		"date":        t.Date.In(loc).Format(time.RFC3339),
		"barberId": map[string]any{
			"id":   strconv.FormatInt(t.BarberID, 10),
			"name": t.BarberName,
		},
		"customerName":  t.CustomerName,
		"customerPhone": t.CustomerPhone,
		"items":         items,
		"totalAmount":   t.TotalAmount,
		"paymentMethod": string(t.PaymentMethod),
	}
}
