// Package service implements rate import, conversion and listing.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDateFormat indicates a date input that cannot be read as a calendar date.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ErrInvalidDateRange indicates a range that is reversed or longer than the source allows.
var ErrInvalidDateRange = errors.New("invalid date range")

// ErrUnsupportedTable indicates a table other than A or B.
var ErrUnsupportedTable = errors.New("unsupported table")

// ErrLockContention indicates another import run holds the lock.
var ErrLockContention = errors.New("import lock held by another run")

// ErrInvalidObservation indicates a rate row rejected before storage.
var ErrInvalidObservation = errors.New("invalid observation")

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeTable upper-cases table, defaulting to A. Only A and B carry mid rates.
func NormalizeTable(table string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(table))
	switch t {
	case "":
		return "A", nil
	case "A", "B":
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTable, table)
	}
}
