package domain

import (
	"fmt"
	"time"
)

const invoicePrefix = "INV-"

// InvoiceCode formats the printed receipt identifier INV-yyMMdd-NNN.
func InvoiceCode(day time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", InvoiceDayPrefix(day), seq)
}

// InvoiceDayPrefix is the part of every invoice code shared by one day, "INV-yyMMdd-".
func InvoiceDayPrefix(day time.Time) string {
	return invoicePrefix + day.Format("060102") + "-"
}

// DayBounds returns [start of day, start of next day) for t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns [first day of month, first day of next month) in loc.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
