package provider

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// TableDay is one published table: a day's worth of rates.
type TableDay struct {
	Table         string
	EffectiveDate string
	Rates         []RateRow
}

// RateRow is a single currency row of a table. Mid is the raw JSON number text.
type RateRow struct {
	Code string
	Mid  string
}

// ParseTables walks an NBP tables payload:
//
//	[{"table":"A","effectiveDate":"2025-11-05","rates":[{"code":"USD","mid":3.95}, ...]}, ...]
//
// Days without effectiveDate or a rates array, and rows without code or mid, are skipped.
func ParseTables(raw []byte) ([]TableDay, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrSourceDataInvalid)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array, got %s", ErrMalformedPayload, root.Type)
	}

	var days []TableDay
	root.ForEach(func(_, day gjson.Result) bool {
		if !day.IsObject() {
			return true
		}
		date := day.Get("effectiveDate")
		rates := day.Get("rates")
		if !date.Exists() || date.Type != gjson.String || !rates.IsArray() {
			return true
		}

		td := TableDay{
			Table:         day.Get("table").String(),
			EffectiveDate: date.String(),
		}
		rates.ForEach(func(_, row gjson.Result) bool {
			code := row.Get("code")
			mid := row.Get("mid")
			if code.String() == "" || !mid.Exists() || mid.Type == gjson.Null {
				return true
			}
			val := mid.Raw
			if mid.Type == gjson.String {
				val = mid.String()
			}
			td.Rates = append(td.Rates, RateRow{Code: code.String(), Mid: val})
			return true
		})
		days = append(days, td)
		return true
	})
	return days, nil
}
