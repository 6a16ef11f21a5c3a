package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

// Ledger is implemented by repository.FinanceRepository.
type Ledger interface {
	CreateExpense(ctx context.Context, in repository.CreateExpenseInput) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, start, end time.Time) ([]domain.Expense, error)
	CreateCapital(ctx context.Context, in repository.CreateCapitalInput) (*domain.Capital, error)
	ListCapital(ctx context.Context, start, end time.Time) ([]domain.Capital, error)
	ProfitLoss(ctx context.Context, start, end time.Time) (domain.ProfitLoss, error)
}

type FinanceHandler struct {
	Repo     Ledger
	Location *time.Location
	Now      func() time.Time
}

func (h FinanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/expenses", h.listExpenses)
	r.Post("/expenses", h.createExpense)
	r.Delete("/expenses/{id}", h.deleteExpense)
	r.Get("/capital", h.listCapital)
	r.Post("/capital", h.createCapital)
	r.Get("/finance/profit-loss", h.profitLoss)
	r.Get("/finance/export", h.export)
}

func (h FinanceHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h FinanceHandler) loc() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

// entryDate parses an optional YYYY-MM-DD body field, defaulting to today.
func (h FinanceHandler) entryDate(raw string) (time.Time, bool) {
	if raw == "" {
		n := h.now().In(h.loc())
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, h.loc()), true
	}
	t, err := time.ParseInLocation(dateLayout, raw, h.loc())
	return t, err == nil
}

func (h FinanceHandler) listExpenses(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.loc(), h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items, err := h.Repo.ListExpenses(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, e := range items {
		resp = append(resp, expensePayload(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h FinanceHandler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description" validate:"required"`
		Amount      int64  `json:"amount" validate:"gt=0"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := h.entryDate(req.Date)
	if !ok {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid date")
		return
	}
	category := req.Category
	if category == "" {
		category = "operational"
	}
	e, err := h.Repo.CreateExpense(r.Context(), repository.CreateExpenseInput{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    category,
		Date:        date,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, expensePayload(*e))
}

func (h FinanceHandler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorKind(w, http.StatusNotFound, domain.KindNotFound, "expense not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h FinanceHandler) listCapital(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.loc(), h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	items, err := h.Repo.ListCapital(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, capitalPayload(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h FinanceHandler) createCapital(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description" validate:"required"`
		Amount      int64  `json:"amount" validate:"gt=0"`
		Type        string `json:"type" validate:"required,oneof=in out"`
		Date        string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := h.entryDate(req.Date)
	if !ok {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid date")
		return
	}
	c, err := h.Repo.CreateCapital(r.Context(), repository.CreateCapitalInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        domain.CapitalType(req.Type),
		Date:        date,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, capitalPayload(*c))
}

func (h FinanceHandler) profitLoss(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseRange(r, h.loc(), h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	pl, err := h.Repo.ProfitLoss(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"startDate":  start.Format(dateLayout),
		"endDate":    end.AddDate(0, 0, -1).Format(dateLayout),
		"revenue":    pl.Revenue,
		"expenses":   pl.Expenses,
		"profit":     pl.Profit,
		"capitalIn":  pl.CapitalIn,
		"capitalOut": pl.CapitalOut,
	})
}

// ledgerRow is one line of the finance export.
type ledgerRow struct {
	Date        time.Time
	Kind        string
	Description string
	Category    string
	Amount      int64
}

func (h FinanceHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	start, end, msg := parseRange(r, h.loc(), h.now())
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	expenses, err := h.Repo.ListExpenses(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	capital, err := h.Repo.ListCapital(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pl, err := h.Repo.ProfitLoss(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([]ledgerRow, 0, len(expenses)+len(capital))
	for _, e := range expenses {
		rows = append(rows, ledgerRow{Date: e.Date, Kind: "expense", Description: e.Description, Category: e.Category, Amount: -e.Amount})
	}
	for _, c := range capital {
		amount := c.Amount
		if c.Type == domain.CapitalOut {
			amount = -amount
		}
		rows = append(rows, ledgerRow{Date: c.Date, Kind: "capital_" + string(c.Type), Description: c.Description, Amount: amount})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	suffix := fmt.Sprintf("%s_%s", start.Format("20060102"), end.AddDate(0, 0, -1).Format("20060102"))
	switch format {
	case "csv":
		data, err := exportLedgerCSV(rows, pl)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"finance_%s.csv\"", suffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportLedgerXLSX(rows, pl)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"finance_%s.xlsx\"", suffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func exportLedgerCSV(rows []ledgerRow, pl domain.ProfitLoss) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"date", "kind", "description", "category", "amount"})
	for _, row := range rows {
		_ = w.Write([]string{
			row.Date.Format(dateLayout),
			row.Kind,
			row.Description,
			row.Category,
			strconv.FormatInt(row.Amount, 10),
		})
	}
	_ = w.Write([]string{"", "revenue", "", "", strconv.FormatInt(pl.Revenue, 10)})
	_ = w.Write([]string{"", "profit", "", "", strconv.FormatInt(pl.Profit, 10)})
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportLedgerXLSX(rows []ledgerRow, pl domain.ProfitLoss) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Finance"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"Date", "Kind", "Description", "Category", "Amount"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for i, row := range rows {
		values := []any{row.Date.Format(dateLayout), row.Kind, row.Description, row.Category, row.Amount}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	last := len(rows) + 3
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", last), "Revenue")
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", last), pl.Revenue)
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", last+1), "Expenses")
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", last+1), pl.Expenses)
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", last+2), "Profit")
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", last+2), pl.Profit)

	_ = f.SetColWidth(sheet, "A", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 32)
	_ = f.SetColWidth(sheet, "D", "E", 16)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "E1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func expensePayload(e domain.Expense) map[string]any {
	return map[string]any{
		"id":          strconv.FormatInt(e.ID, 10),
		"description": e.Description,
		"amount":      e.Amount,
		"category":    e.Category,
		"date":        e.Date.Format(dateLayout),
	}
}

func capitalPayload(c domain.Capital) map[string]any {
	return map[string]any{
		"id":          strconv.FormatInt(c.ID, 10),
		"description": c.Description,
		"amount":      c.Amount,
		"type":        string(c.Type),
		"date":        c.Date.Format(dateLayout),
	}
}
