package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	// 23:30 UTC on Nov 5 is already Nov 6 at UTC+1.
	now := time.Date(2025, 11, 5, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		in   string
		want string
	}{
		{"today", "2025-11-06"},
		{" TODAY ", "2025-11-06"},
		{"yesterday", "2025-11-05"},
		{"2025-02-28", "2025-02-28"},
		{"2025/03/01", "2025-03-01"},
		{"March 7, 2025", "2025-03-07"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in, now, loc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow-ish", "2025-13-45", "not a date"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in, time.Now(), time.UTC)
			assert.ErrorIs(t, err, ErrInvalidDateFormat)
		})
	}
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange(day("2025-11-05"), day("2025-11-05")))
	assert.NoError(t, ValidateRange(day("2025-01-01"), day("2025-04-03")))
	assert.ErrorIs(t, ValidateRange(day("2025-01-01"), day("2025-04-04")), ErrInvalidDateRange)
	assert.ErrorIs(t, ValidateRange(day("2025-11-06"), day("2025-11-05")), ErrInvalidDateRange)
}

func TestRetentionDays(t *testing.T) {
	tests := []struct {
		in     int
		want   int
		wantOK bool
	}{
		{-5, 0, false},
		{0, 0, false},
		{1, 1, true},
		{30, 30, true},
		{3650, 3650, true},
		{99999, 3650, true},
	}
	for _, tc := range tests {
		got, ok := RetentionDays(tc.in)
		assert.Equal(t, tc.want, got, "days for %d", tc.in)
		assert.Equal(t, tc.wantOK, ok, "ok for %d", tc.in)
	}
}

func TestNormalizeTable(t *testing.T) {
	for in, want := range map[string]string{"": "A", "a": "A", " B ": "B"} {
		got, err := NormalizeTable(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := NormalizeTable("C")
	assert.ErrorIs(t, err, ErrUnsupportedTable)
}
