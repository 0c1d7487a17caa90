// Package money normalizes locale-formatted amount and date tokens into
// canonical decimal and ISO date values.
//
// Statements use the Brazilian convention: "." groups thousands and ","
// starts the two-digit decimal part ("1.234,56"). Parsing is strict: input
// that could be read under either locale convention is rejected rather than
// silently zeroed, so a wrong candidate match upstream fails loudly.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmbiguousSeparator reports an amount whose separators cannot be
	// attributed to one locale convention.
	ErrAmbiguousSeparator = errors.New("ambiguous thousands/decimal separators")

	// ErrInvalidCalendarDate reports a day/month pair outside the calendar.
	ErrInvalidCalendarDate = errors.New("invalid calendar date")
)

// ParseAmount converts a statement amount token to a decimal value.
// It strips currency symbols and whitespace, accepts three negative-sign
// conventions (leading "-", trailing "-", parenthesized) and resolves "." as
// the thousands separator and "," as the decimal separator.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Strip currency markers and inner whitespace before sign detection so
	// "R$ -12,30" and "- 12,30" both parse.
	s = strings.NewReplacer("R$", "", "$", "", "€", "", "£", "", " ", "", " ", "").Replace(s)

	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = s[:len(s)-1]
	}

	if s == "" || strings.ContainsAny(s, "-()") {
		return decimal.Zero, fmt.Errorf("malformed amount %q", text)
	}

	digits, err := normalizeSeparators(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", text, err)
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", text, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites a Brazilian-formatted digit string into the
// canonical "1234.56" form, rejecting separator layouts that would also be
// valid under the opposite locale.
func normalizeSeparators(s string) (string, error) {
	commas := strings.Count(s, ",")
	switch {
	case commas > 1:
		return "", ErrAmbiguousSeparator
	case commas == 1:
		idx := strings.LastIndex(s, ",")
		frac := s[idx+1:]
		if len(frac) != 2 || strings.Contains(frac, ".") {
			// A dot after the comma means the string reads naturally as
			// "1,234.56", the opposite convention.
			return "", ErrAmbiguousSeparator
		}
		intPart := strings.ReplaceAll(s[:idx], ".", "")
		if intPart == "" {
			intPart = "0"
		}
		if !isDigits(intPart) || !isDigits(frac) {
			return "", ErrAmbiguousSeparator
		}
		return intPart + "." + frac, nil
	default:
		// No comma: dots can only be thousands separators.
		intPart := strings.ReplaceAll(s, ".", "")
		if !isDigits(intPart) {
			return "", ErrAmbiguousSeparator
		}
		return intPart, nil
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseRate converts a conversion-rate token ("6,27" or "5,4321") to decimal.
// Rates carry up to four fractional digits, so the two-digit rule of
// ParseAmount does not apply.
func ParseRate(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %q: %w", text, err)
	}
	return d, nil
}

// ValidDayMonth reports whether a "DD/MM" token has both components in range.
// This is the cheap pre-check the matcher runs before committing to a pattern.
func ValidDayMonth(token string) bool {
	day, month, ok := splitDayMonth(token)
	return ok && day >= 1 && day <= 31 && month >= 1 && month <= 12
}

// ToISODate combines a validated "DD/MM" token with a caller-supplied year
// into "YYYY-MM-DD". Dates that do not exist on the calendar (e.g. 31/02)
// fail with ErrInvalidCalendarDate.
func ToISODate(dayMonth string, year int) (string, error) {
	day, month, ok := splitDayMonth(dayMonth)
	if !ok {
		return "", fmt.Errorf("date %q: %w", dayMonth, ErrInvalidCalendarDate)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", fmt.Errorf("date %q: %w", dayMonth, ErrInvalidCalendarDate)
	}
	return t.Format("2006-01-02"), nil
}

func splitDayMonth(token string) (day, month int, ok bool) {
	parts := strings.Split(strings.TrimSpace(token), "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return day, month, true
}

// Format renders a decimal with two fractional digits, the serialization used
// across CSV output and ledger hashing. Format(ParseAmount(s)) round-trips to
// the same value under re-parsing for every accepted input s.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
