package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

type DashboardHandler struct {
	Repo     repository.DashboardRepository
	Location *time.Location
	Now      func() time.Time
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.summary)
	r.Get("/dashboard/top-services", h.topServices)
	r.Get("/dashboard/top-barbers", h.topBarbers)
	r.Get("/dashboard/sales", h.sales)
}

func (h DashboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.Location, h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	data, err := h.Repo.Summary(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRevenue":      data.TotalRevenue,
		"totalTransactions": data.TotalTransactions,
		"todayRevenue":      data.TodayRevenue,
		"todayTransactions": data.TodayTransactions,
	})
}

func (h DashboardHandler) topServices(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.Location, h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items, err := h.Repo.TopServices(r.Context(), start, end, queryInt(r, "limit", 5))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDashboardItems(items))
}

func (h DashboardHandler) topBarbers(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.Location, h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items, err := h.Repo.TopBarbers(r.Context(), start, end, queryInt(r, "limit", 5))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDashboardItems(items))
}

func (h DashboardHandler) sales(w http.ResponseWriter, r *http.Request) {
	days := 30
	switch strings.ToLower(r.URL.Query().Get("range")) {
	case "1d", "today", "hari ini", "hari":
		days = 1
	case "7d", "minggu ini", "minggu", "week":
		days = 7
	case "30d", "bulan ini", "bulan", "month":
		days = 30
	}
	points, err := h.Repo.SalesSeries(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(points))
	for _, p := range points {
		resp = append(resp, map[string]any{
			"label": p.Label,
			"value": p.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toDashboardItems(items []repository.DashboardItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"name":   it.Name,
			"amount": it.Amount,
			"count":  it.Count,
		})
	}
	return out
}
