// Package core holds the dashboard domain: records, date intervals, category
// selections, and the pure filter/aggregate pipeline over them.
//
// This file contains parsing helpers used by record sources to turn text
// cells (CSV, spreadsheet) into validated record fields.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidCount  = errors.New("invalid count")
)

// ParseRevenue converts a decimal string into a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading currency symbol or thousands separators in the form
// "$1,234.50". A single comma followed by exactly three digits is a
// thousands separator. Zero is a valid revenue; negative values are
// rejected.
//
// Examples:
//
//	ParseRevenue("12.34")     -> 12.34
//	ParseRevenue("12,34")     -> 12.34
//	ParseRevenue("$1,234")    -> 1234
//	ParseRevenue("$1,234.50") -> 1234.50
func ParseRevenue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.Is(unicode.Sc, r) })
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators turns "1,234.50" and "1234,50" into "1234.50".
// With both separators present the last one is the decimal mark.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || isThousandsGroup(s, lastComma) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

// isThousandsGroup reports whether the comma at i splits a 1-3 digit lead
// from exactly three digits, as in "1,234" or "12,345".
func isThousandsGroup(s string, i int) bool {
	lead, group := s[:i], s[i+1:]
	return len(lead) >= 1 && len(lead) <= 3 && len(group) == 3 && allDigits(lead) && allDigits(group)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseCount parses a non-negative integer count. Whole-valued decimals
// such as "12.0", which spreadsheets commonly emit, are accepted.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCount
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, ErrInvalidCount
		}
		return n, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, ErrInvalidCount
	}
	return d.IntPart(), nil
}
