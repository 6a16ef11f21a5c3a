package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var timeSlotPattern = regexp.MustCompile(`^(\d{2}):(\d{2})\s*-\s*(\d{2}):(\d{2})$`)

// TimeSlot is a parsed booking slot with both ends in minutes after midnight.
type TimeSlot struct {
	StartMinute int
	EndMinute   int
}

// ParseTimeSlot reads a label like "14:00 - 15:00". Spacing around the dash
// is free; Label gives the single stored spelling.
func ParseTimeSlot(label string) (TimeSlot, error) {
	m := timeSlotPattern.FindStringSubmatch(label)
	if m == nil {
		return TimeSlot{}, fmt.Errorf("time slot %q must look like HH:MM - HH:MM", label)
	}
	startHour, _ := strconv.Atoi(m[1])
	startMin, _ := strconv.Atoi(m[2])
	endHour, _ := strconv.Atoi(m[3])
	endMin, _ := strconv.Atoi(m[4])
	if startHour > 23 || endHour > 24 || startMin > 59 || endMin > 59 || (endHour == 24 && endMin > 0) {
		return TimeSlot{}, fmt.Errorf("time slot %q is not a valid time range", label)
	}
	return TimeSlot{StartMinute: startHour*60 + startMin, EndMinute: endHour*60 + endMin}, nil
}

// Label renders the slot as "HH:MM - HH:MM".
func (t TimeSlot) Label() string {
	return fmt.Sprintf("%02d:%02d - %02d:%02d", t.StartMinute/60, t.StartMinute%60, t.EndMinute/60, t.EndMinute%60)
}

// Within reports whether the slot lies inside the [openingHour, closingHour) window.
func (t TimeSlot) Within(openingHour, closingHour int) bool {
	return t.StartMinute >= openingHour*60 && t.EndMinute <= closingHour*60
}

// CanonicalTimeSlot returns the stored spelling of label, or label unchanged
// when it does not parse.
func CanonicalTimeSlot(label string) string {
	t, err := ParseTimeSlot(strings.TrimSpace(label))
	if err != nil {
		return label
	}
	return t.Label()
}

// TimeSlotLabel renders the canonical one-hour slot starting at hour.
func TimeSlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:00", hour, hour+1)
}

// BusinessSlots lists every one-hour slot between opening and closing hour.
func BusinessSlots(openingHour, closingHour int) []string {
	slots := make([]string, 0, closingHour-openingHour)
	for h := openingHour; h < closingHour; h++ {
		slots = append(slots, TimeSlotLabel(h))
	}
	return slots
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
