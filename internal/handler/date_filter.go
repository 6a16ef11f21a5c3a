package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	dateLayout      = "2006-01-02"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseRange reads startDate/endDate as local calendar days and returns the
// half-open interval [start, end+1 day). Missing bounds default to the
// current month.
func parseRange(r *http.Request, loc *time.Location, now time.Time) (time.Time, time.Time, string) {
	if loc == nil {
		loc = time.UTC
	}
	startDate, err := parseDateQuery(r, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, "invalid startDate"
	}
	endDate, err := parseDateQuery(r, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, "invalid endDate"
	}
	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		return time.Time{}, time.Time{}, "startDate must be before endDate"
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	if startDate != nil {
		start = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, loc)
	}
	if endDate != nil {
		end = time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	}
	return start, end, ""
}

func parseIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
