package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"currencyrates/internal/provider"
)

// MaxRangeDays is the widest inclusive range the NBP API serves in one call.
const MaxRangeDays = 93

// Retention bounds in days.
const (
	minRetentionDays = 1
	maxRetentionDays = 3650
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// calendarDay strips the clock from t, keeping the date as seen in t's location.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate reads "today", "yesterday", YYYY-MM-DD or any format dateparse
// understands. Relative words resolve against now in loc.
func ParseDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	today := calendarDay(now.In(loc))

	switch strings.ToLower(s) {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if isoDate.MatchString(s) {
		d, err := time.Parse(provider.DateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, input)
		}
		return d, nil
	}

	if s != "" {
		if t, err := dateparse.ParseIn(s, loc); err == nil {
			return calendarDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, input)
}

// ValidateRange checks from <= to and that the span fits one NBP request.
func ValidateRange(from, to time.Time) error {
	if from.After(to) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange,
			from.Format(provider.DateLayout), to.Format(provider.DateLayout))
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidDateRange, days, MaxRangeDays)
	}
	return nil
}

// RetentionDays clamps the configured history window. ok is false when history is kept forever.
func RetentionDays(n int) (days int, ok bool) {
	if n <= 0 {
		return 0, false
	}
	return max(minRetentionDays, min(maxRetentionDays, n)), true
}
