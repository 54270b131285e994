// Package core holds the domain model: money, periods, and the entities
// persisted by the storage layer.
//
// Monetary values are carried as integer minor units (cents) everywhere.
// Decimal strings cross into cents exactly once, at the HTTP or import
// boundary, and back out exactly once when formatting a response.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer minor units (cents).
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Major returns the major-unit value as a float64 for JSON display output.
// Calculations must stay in cents; this exists only for presentation.
func (m Money) Major() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain decimal with two fraction digits.
func (m Money) String() string {
	return FormatCents(m.Cents)
}

// FormatCents renders cents as a decimal string, e.g. 1234 -> "12.34".
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// maxCentsSafeMajor guards the *100 step against int64 overflow.
const maxCentsSafeMajor = (1<<63 - 1) / 100

// ParseDecimalToCents converts a user-entered decimal string to cents.
//
// Both dot and comma decimal separators are accepted. A third fractional
// digit rounds half-up. Negative and zero amounts are rejected; callers
// that accept signed input (the CSV importer) strip the sign first.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || major > maxCentsSafeMajor {
		return 0, ErrInvalidAmount
	}

	var frac int64
	switch {
	case len(fracPart) >= 2:
		frac = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			frac++
		}
	case len(fracPart) == 1:
		frac = int64(fracPart[0]-'0') * 10
	}

	cents := major*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
