// Package core holds the dashboard domain model: logbook records, money
// amounts in integer cents and the filter predicates applied to them.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseEuroCents converts a monetary string to cents.
//
// It accepts plain decimals with dot or comma separators as well as the EU
// spreadsheet formatting the source sheets use: "€ 1.234,56", "1.234,56 €",
// "1234.56". Thousands separators are stripped before the decimal part is
// read; the third decimal digit rounds half-up.
//
// Examples:
//
//	ParseEuroCents("€ 550,00") -> 55000, nil
//	ParseEuroCents("1.234,56") -> 123456, nil
//	ParseEuroCents("12.5")     -> 1250, nil
func ParseEuroCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "€", ""))
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	// EU form: comma is the decimal separator, dots group thousands.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if n := strings.Count(s, "."); n > 1 {
		// Dots only and more than one: all thousands separators.
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, " ", "")

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// FormatEuros renders cents in the EU style used by the UI, e.g. "€1.234,56".
func FormatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := cents / 100
	rem := cents % 100
	digits := strconv.FormatInt(euros, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := b.String() + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
