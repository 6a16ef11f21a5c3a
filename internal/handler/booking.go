package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/service"
	"github.com/nicolaananda/barber-pos-sub000/internal/storage"
)

// Bookings is implemented by service.BookingService.
type Bookings interface {
	Create(ctx context.Context, in service.CreateBookingInput) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, to domain.BookingStatus) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, date *time.Time, status string) ([]domain.Booking, error)
	ListByPhone(ctx context.Context, phone string) ([]domain.Booking, error)
	Availability(ctx context.Context, barberID int64, date time.Time) (*service.Availability, error)
}

type BookingHandler struct {
	Service Bookings
}

// RegisterPublicRoutes mounts the customer-facing booking endpoints.
func (h BookingHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/bookings", h.create)
	r.Get("/public/bookings/status", h.statusByPhone)
	r.Get("/public/bookings/availability", h.availability)
}

func (h BookingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bookings", h.list)
	r.Get("/bookings/{id}", h.get)
	r.Patch("/bookings/{id}/status", h.updateStatus)
}

const multipartOverhead = 1 << 20

func (h BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxProofBytes+multipartOverhead)
	if err := r.ParseMultipartForm(storage.MaxProofBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, storage.ErrImageTooLarge.Error())
			return
		}
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	barberID, _ := strconv.ParseInt(r.FormValue("barberId"), 10, 64)
	in := service.CreateBookingInput{
		BarberID:      barberID,
		CustomerName:  r.FormValue("customerName"),
		CustomerPhone: r.FormValue("customerPhone"),
		TimeSlot:      r.FormValue("timeSlot"),
		ServiceName:   r.FormValue("serviceName"),
	}
	if raw := strings.TrimSpace(r.FormValue("bookingDate")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "bookingDate must be YYYY-MM-DD")
			return
		}
		in.BookingDate = d
	}
	if raw := strings.TrimSpace(r.FormValue("serviceId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "Invalid serviceId")
			return
		}
		in.ServiceID = &id
	}

	file, header, err := r.FormFile("proof")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, storage.MaxProofBytes+1))
		if err != nil {
			writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "could not read proof")
			return
		}
		in.Proof = &service.ProofUpload{Data: data, ContentType: header.Header.Get("Content-Type")}
	case !errors.Is(err, http.ErrMissingFile):
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid proof upload")
		return
	}

	b, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingPayload(*b))
}

func (h BookingHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Service.UpdateStatus(r.Context(), id, domain.BookingStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingPayload(*b))
}

func (h BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingPayload(*b))
}

func (h BookingHandler) list(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	items, err := h.Service.List(r.Context(), date, r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsPayload(items))
}

func (h BookingHandler) statusByPhone(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListByPhone(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsPayload(items))
}

func (h BookingHandler) availability(w http.ResponseWriter, r *http.Request) {
	barberID, _ := strconv.ParseInt(r.URL.Query().Get("barberId"), 10, 64)
	date, err := parseDateQuery(r, "date")
	if err != nil || date == nil {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "date must be YYYY-MM-DD")
		return
	}
	a, err := h.Service.Availability(r.Context(), barberID, *date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	taken := a.Taken
	if taken == nil {
		taken = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"barberId": strconv.FormatInt(a.BarberID, 10),
		"date":     a.Date.Format(dateLayout),
		"offDay":   a.OffDay,
		"slots":    a.Slots,
		"taken":    taken,
	})
}

func bookingsPayload(items []domain.Booking) []map[string]any {
	resp := make([]map[string]any, 0, len(items))
	for _, b := range items {
		resp = append(resp, bookingPayload(b))
	}
	return resp
}

func bookingPayload(b domain.Booking) map[string]any {
	out := map[string]any{
		"id": strconv.FormatInt(b.ID, 10),
		"barberId": map[string]any{
			"id":   strconv.FormatInt(b.BarberID, 10),
			"name": b.BarberName,
		},
		"customerName":  b.CustomerName,
		"customerPhone": b.CustomerPhone,
		"bookingDate":   b.BookingDate.Format(dateLayout),
		"timeSlot":      b.TimeSlot,
		"serviceName":   b.ServiceName,
		"servicePrice":  b.ServicePrice,
		"status":        string(b.Status),
		"paymentProof":  b.PaymentProof,
		"createdAt":     b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.ServiceID != nil {
		out["serviceId"] = strconv.FormatInt(*b.ServiceID, 10)
	}
	return out
}
