package repository

import (
	"strings"
	"time"
)

// Listing bounds.
const (
	DefaultPageSize = 30
	MaxPageSize     = 200
)

// Sort fields accepted by RangeQuery.
const (
	SortEffectiveDate = "effective_date"
	SortCurrencyCode  = "currency_code"
	SortRate          = "rate"
)

var sortColumns = map[string]string{
	SortEffectiveDate: "effective_date",
	SortCurrencyCode:  "currency_code",
	SortRate:          "rate",
}

// RangeQuery selects observations with effective_date >= From.
type RangeQuery struct {
	From     time.Time
	Table    string // empty means every table
	Sort     string
	Dir      string
	Page     int
	PageSize int
}

// NormalizeRangeQuery coerces sort, direction and paging into their allowed values.
func NormalizeRangeQuery(q RangeQuery) RangeQuery {
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	if _, ok := sortColumns[q.Sort]; !ok {
		q.Sort = SortEffectiveDate
	}
	q.Dir = strings.ToLower(strings.TrimSpace(q.Dir))
	if q.Dir != "asc" && q.Dir != "desc" {
		q.Dir = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Table = strings.ToUpper(strings.TrimSpace(q.Table))
	return q
}

// Offset returns the row offset of the page.
func (q RangeQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// orderBy builds the ORDER BY list for a normalized query. Ties fall back to
// effective_date DESC, then currency_code ASC.
func orderBy(q RangeQuery) string {
	parts := []string{sortColumns[q.Sort] + " " + strings.ToUpper(q.Dir)}
	if q.Sort != SortEffectiveDate {
		parts = append(parts, "effective_date DESC")
	}
	if q.Sort != SortCurrencyCode {
		parts = append(parts, "currency_code ASC")
	}
	return strings.Join(parts, ", ")
}
