package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRangeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   RangeQuery
		want RangeQuery
	}{
		{
			name: "zero value gets defaults",
			in:   RangeQuery{},
			want: RangeQuery{Sort: SortEffectiveDate, Dir: "desc", Page: 1, PageSize: DefaultPageSize},
		},
		{
			name: "unknown sort and dir fall back",
			in:   RangeQuery{Sort: "id; DROP TABLE exchange_rates", Dir: "sideways", Page: 3, PageSize: 10},
			want: RangeQuery{Sort: SortEffectiveDate, Dir: "desc", Page: 3, PageSize: 10},
		},
		{
			name: "case insensitive",
			in:   RangeQuery{Sort: " Rate ", Dir: "ASC", Page: 2, PageSize: 50, Table: "a"},
			want: RangeQuery{Sort: SortRate, Dir: "asc", Page: 2, PageSize: 50, Table: "A"},
		},
		{
			name: "page size capped",
			in:   RangeQuery{Sort: SortCurrencyCode, Dir: "asc", Page: -4, PageSize: 5000},
			want: RangeQuery{Sort: SortCurrencyCode, Dir: "asc", Page: 1, PageSize: MaxPageSize},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeRangeQuery(tc.in))
		})
	}
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		sort, dir string
		want      string
	}{
		{SortEffectiveDate, "desc", "effective_date DESC, currency_code ASC"},
		{SortEffectiveDate, "asc", "effective_date ASC, currency_code ASC"},
		{SortCurrencyCode, "desc", "currency_code DESC, effective_date DESC"},
		{SortRate, "asc", "rate ASC, effective_date DESC, currency_code ASC"},
	}
	for _, tc := range tests {
		t.Run(tc.sort+"_"+tc.dir, func(t *testing.T) {
			assert.Equal(t, tc.want, orderBy(RangeQuery{Sort: tc.sort, Dir: tc.dir}))
		})
	}
}

func TestRangeQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, RangeQuery{Page: 1, PageSize: 30}.Offset())
	assert.Equal(t, 60, RangeQuery{Page: 3, PageSize: 30}.Offset())
}

func TestInsertResult_String(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "duplicate_skipped", DuplicateSkipped.String())
	assert.Equal(t, "unknown", InsertResult(0).String())
}
