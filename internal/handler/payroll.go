package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

// Payroll is implemented by service.PayrollService.
type Payroll interface {
	Compute(ctx context.Context, year int, month time.Month) ([]domain.PayrollRow, error)
}

type PayrollHandler struct {
	Service  Payroll
	Location *time.Location
	Now      func() time.Time
}

func (h PayrollHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payroll", h.list)
	r.Get("/payroll/export", h.export)
}

// period reads month and year, defaulting to the current local month.
func (h PayrollHandler) period(r *http.Request) (int, time.Month, bool) {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if h.Location != nil {
		now = now.In(h.Location)
	}
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		year = n
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		month = time.Month(n)
	}
	return year, month, true
}

func (h PayrollHandler) list(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.period(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "month and year must be numbers")
		return
	}
	rows, err := h.Service.Compute(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, map[string]any{
			"barberId":            strconv.FormatInt(row.BarberID, 10),
			"barberName":          row.BarberName,
			"period":              fmt.Sprintf("%04d-%02d", row.Year, int(row.Month)),
			"totalTransactions":   row.TotalTransactions,
			"totalRevenue":        row.TotalRevenue,
			"estimatedCommission": row.EstimatedCommission,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h PayrollHandler) export(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.period(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "month and year must be numbers")
		return
	}
	rows, err := h.Service.Compute(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	data, err := exportPayrollXLSX(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"payroll_%04d_%02d.xlsx\"", year, int(month)))
	_, _ = w.Write(data)
}

func exportPayrollXLSX(rows []domain.PayrollRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Payroll"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"Barber ID", "Barber", "Period", "Transactions", "Revenue", "Commission"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	var totalRevenue, totalCommission int64
	for i, row := range rows {
		values := []any{
			row.BarberID,
			row.BarberName,
			fmt.Sprintf("%04d-%02d", row.Year, int(row.Month)),
			row.TotalTransactions,
			row.TotalRevenue,
			row.EstimatedCommission,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		totalRevenue += row.TotalRevenue
		totalCommission += row.EstimatedCommission
	}
	last := len(rows) + 2
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", last), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", last), totalRevenue)
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", last), totalCommission)

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "E", "F", 16)

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheet, "A1", "F1", bold)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", last), fmt.Sprintf("F%d", last), bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
