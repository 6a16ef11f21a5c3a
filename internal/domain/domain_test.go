package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInvoiceCode(t *testing.T) {
	day := time.Date(2025, time.March, 7, 15, 4, 0, 0, time.UTC)
	cases := []struct {
		seq  int
		want string
	}{
		{1, "INV-250307-001"},
		{42, "INV-250307-042"},
		{999, "INV-250307-999"},
		{1000, "INV-250307-1000"},
	}
	for _, tc := range cases {
		if got := InvoiceCode(day, tc.seq); got != tc.want {
			t.Fatalf("InvoiceCode(%d) = %s, want %s", tc.seq, got, tc.want)
		}
	}
	if got := InvoiceDayPrefix(day); got != "INV-250307-" {
		t.Fatalf("InvoiceDayPrefix = %s", got)
	}
}

func TestDayBoundsUsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	// 20:00 UTC on the 1st is 03:00 on the 2nd in WIB.
	ts := time.Date(2025, time.January, 1, 20, 0, 0, 0, time.UTC)
	start, end := DayBounds(ts, loc)
	if start.Day() != 2 || start.Hour() != 0 || start.Location() != loc {
		t.Fatalf("unexpected start %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("unexpected day length %v", end.Sub(start))
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2024, time.December, time.UTC)
	if start != time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("start = %v", start)
	}
	if end != time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("end = %v", end)
	}
}

func TestParseTimeSlot(t *testing.T) {
	cases := []struct {
		in        string
		start     int
		end       int
		label     string
		expectErr bool
	}{
		{"14:00 - 15:00", 840, 900, "14:00 - 15:00", false},
		{"11:00-12:00", 660, 720, "11:00 - 12:00", false},
		{"14:00  -  15:00", 840, 900, "14:00 - 15:00", false},
		{"21:30 - 22:30", 1290, 1350, "21:30 - 22:30", false},
		{"23:00 - 24:00", 1380, 1440, "23:00 - 24:00", false},
		{"23:00 - 24:30", 0, 0, "", true},
		{"9:00 - 10:00", 0, 0, "", true},
		{"14.00 - 15.00", 0, 0, "", true},
		{"25:00 - 26:00", 0, 0, "", true},
		{"", 0, 0, "", true},
	}
	for _, tc := range cases {
		slot, err := ParseTimeSlot(tc.in)
		if tc.expectErr {
			if err == nil {
				t.Fatalf("ParseTimeSlot(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeSlot(%q) error: %v", tc.in, err)
		}
		if slot.StartMinute != tc.start || slot.EndMinute != tc.end {
			t.Fatalf("ParseTimeSlot(%q) = %d,%d want %d,%d", tc.in, slot.StartMinute, slot.EndMinute, tc.start, tc.end)
		}
		if slot.Label() != tc.label {
			t.Fatalf("ParseTimeSlot(%q).Label() = %q want %q", tc.in, slot.Label(), tc.label)
		}
	}
}

func TestTimeSlotWithin(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"11:00 - 11:30", true},
		{"21:00 - 22:00", true},
		{"21:30 - 22:30", false},
		{"10:30 - 11:30", false},
	}
	for _, tc := range cases {
		slot, err := ParseTimeSlot(tc.in)
		if err != nil {
			t.Fatalf("ParseTimeSlot(%q) error: %v", tc.in, err)
		}
		if got := slot.Within(11, 22); got != tc.want {
			t.Errorf("%q within 11-22 = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBusinessSlots(t *testing.T) {
	slots := BusinessSlots(11, 14)
	want := []string{"11:00 - 12:00", "12:00 - 13:00", "13:00 - 14:00"}
	if len(slots) != len(want) {
		t.Fatalf("got %v", slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d = %q, want %q", i, slots[i], want[i])
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]BookingStatus{
		{BookingPending, BookingConfirmed},
		{BookingPending, BookingCancelled},
		{BookingConfirmed, BookingCompleted},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	denied := [][2]BookingStatus{
		{BookingPending, BookingCompleted},
		{BookingConfirmed, BookingPending},
		{BookingCancelled, BookingConfirmed},
		{BookingCompleted, BookingCancelled},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be rejected", tr[0], tr[1])
		}
	}
}

func TestItemsTotal(t *testing.T) {
	items := []TransactionItem{{Price: 40000, Qty: 2}, {Price: 15000, Qty: 1}}
	if got := ItemsTotal(items); got != 95000 {
		t.Fatalf("ItemsTotal = %d", got)
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ConflictError("A shift is already open"))
	if KindOf(err) != KindConflict {
		t.Fatalf("KindOf = %s", KindOf(err))
	}
	if MessageOf(err) != "A shift is already open" {
		t.Fatalf("MessageOf = %q", MessageOf(err))
	}
	if KindOf(errors.New("boom")) != KindPersistence {
		t.Fatal("unclassified errors should be persistence errors")
	}
	up := UpstreamError("whatsapp", errors.New("timeout"))
	if !IsKind(up, KindUpstream) || up.Error() != "whatsapp: timeout" {
		t.Fatalf("unexpected upstream error %v", up)
	}
}
