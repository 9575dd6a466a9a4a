// Package scorer validates prospect and outreach records and computes
// their derived pipeline fields from a settings snapshot. Everything in
// this package is a pure function of its inputs; persistence and sheet
// I/O belong to the caller.
package scorer

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// FieldError is one failed validation: which field and why.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Reason
}

// FieldErrors collects per-field failures for one record.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// dateLayouts are the accepted contact/step date formats.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ValidateEmail requires a single @ with non-empty local and domain
// parts.
func ValidateEmail(value string) *FieldError {
	value = strings.TrimSpace(value)
	at := strings.Count(value, "@")
	if at != 1 {
		return &FieldError{Field: "email", Reason: fmt.Sprintf("%q must contain exactly one @", value)}
	}
	parts := strings.SplitN(value, "@", 2)
	if parts[0] == "" || parts[1] == "" {
		return &FieldError{Field: "email", Reason: fmt.Sprintf("%q is missing a local or domain part", value)}
	}
	return nil
}

// ValidatePhoneNumber requires at least 7 digits once formatting
// punctuation is stripped.
func ValidatePhoneNumber(value string) *FieldError {
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 7 {
		return &FieldError{Field: "phone", Reason: fmt.Sprintf("%q has %d digits, need at least 7", value, digits)}
	}
	return nil
}

// ValidateZipCode accepts 5-digit and 5+4 formats.
func ValidateZipCode(value string) *FieldError {
	value = strings.TrimSpace(value)
	ok := false
	switch len(value) {
	case 5:
		ok = allDigits(value)
	case 10:
		ok = allDigits(value[:5]) && value[5] == '-' && allDigits(value[6:])
	}
	if !ok {
		return &FieldError{Field: "zip_code", Reason: fmt.Sprintf("%q is not a 5-digit or 5+4 zip code", value)}
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ValidateDate parses value as a real calendar date.
func ValidateDate(field, value string) (time.Time, *FieldError) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FieldError{Field: field, Reason: fmt.Sprintf("%q is not a valid date", value)}
}

// ValidateNumericRange checks inclusive bounds.
func ValidateNumericRange(value, low, high float64, field string) *FieldError {
	if value < low || value > high {
		return &FieldError{Field: field, Reason: fmt.Sprintf("%g is outside [%g, %g]", value, low, high)}
	}
	return nil
}

// ValidateAllowedValues checks case-sensitive set membership.
func ValidateAllowedValues(value string, allowed map[string]struct{}, field string) *FieldError {
	if _, ok := allowed[value]; !ok {
		return &FieldError{Field: field, Reason: fmt.Sprintf("%q is not an allowed value", value)}
	}
	return nil
}

// SanitizeString strips angle brackets so sheet values can't smuggle
// markup into rendered output.
func SanitizeString(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
