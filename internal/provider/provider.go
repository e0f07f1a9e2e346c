// Package provider implements the remote exchange-rate table source.
package provider

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// DateLayout is the calendar date format used by the rate source.
const DateLayout = "2006-01-02"

var (
	// ErrSourceUnavailable indicates a transport failure talking to the rate source.
	ErrSourceUnavailable = errors.New("rate source unavailable")
	// ErrSourceDataInvalid indicates the rate source answered with an undecodable body.
	ErrSourceDataInvalid = errors.New("rate source returned invalid data")
	// ErrMalformedPayload indicates a decodable body of an unexpected shape.
	ErrMalformedPayload = errors.New("malformed rate table payload")
)

// RatesSource defines an interface for fetching raw rate tables from a remote source.
type RatesSource interface {
	FetchTables(ctx context.Context, table string, spec DateSpec) ([]byte, error)
}

type dateSpecKind int

const (
	specToday dateSpecKind = iota
	specDate
	specRange
)

// DateSpec selects which tables to fetch: today's, one date, or an inclusive range.
type DateSpec struct {
	kind dateSpecKind
	from time.Time
	to   time.Time
}

// Today selects the table published today.
func Today() DateSpec { return DateSpec{kind: specToday} }

// OnDate selects the table effective on a single calendar date.
func OnDate(d time.Time) DateSpec { return DateSpec{kind: specDate, from: d} }

// Between selects all tables effective within [from, to].
func Between(from, to time.Time) DateSpec { return DateSpec{kind: specRange, from: from, to: to} }

// PathSegment renders the date selection as a URL path. Range endpoints are escaped
// separately so the slash between them stays a path separator.
func (s DateSpec) PathSegment() string {
	switch s.kind {
	case specDate:
		return url.PathEscape(s.from.Format(DateLayout))
	case specRange:
		return url.PathEscape(s.from.Format(DateLayout)) + "/" + url.PathEscape(s.to.Format(DateLayout))
	default:
		return "today"
	}
}

// String implements fmt.Stringer.
func (s DateSpec) String() string {
	return s.PathSegment()
}
