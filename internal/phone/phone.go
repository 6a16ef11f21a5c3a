// Package phone normalizes customer phone numbers so that the same person
// typed as "0812..." or "+62 812..." maps to one customer row.
package phone

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used for numbers typed without a country prefix.
const DefaultRegion = "ID"

var ErrInvalid = errors.New("invalid phone number")

// Normalize parses raw and returns it in E.164 form, e.g. +6281234567890.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	p, err := libphonenumber.Parse(raw, DefaultRegion)
	if err != nil {
		return "", ErrInvalid
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalid
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// WhatsAppTarget converts an E.164 number into the digits-only form the
// WhatsApp gateway expects.
func WhatsAppTarget(e164 string) string {
	return strings.TrimPrefix(e164, "+")
}
