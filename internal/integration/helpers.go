//go:build integration

package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"currencyrates/internal/repository"
)

var (
	testDB  *sql.DB
	testRDB *redis.Client
)

// resetTestData empties rate history and import state and flushes the cache database.
func resetTestData(t *testing.T) {
	t.Helper()

	_, err := testDB.ExecContext(context.Background(),
		"TRUNCATE TABLE exchange_rates, import_locks, import_watermarks RESTART IDENTITY")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	if err := testRDB.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedRate inserts one table A observation and fails the test unless it is new.
func seedRate(t *testing.T, code, rate, date string) {
	t.Helper()
	repo := repository.NewPostgresRateRepository(testDB)
	res, err := repo.Insert(testContext(t), repository.Observation{
		CurrencyCode:  code,
		TableType:     "A",
		Rate:          decimal.RequireFromString(rate),
		EffectiveDate: day(date),
	})
	if err != nil {
		t.Fatalf("seed %s %s: %v", code, date, err)
	}
	if res != repository.Inserted {
		t.Fatalf("seed %s %s: expected inserted, got %s", code, date, res)
	}
}

func countRates(t *testing.T) int {
	t.Helper()
	var n int
	if err := testDB.QueryRowContext(testContext(t), "SELECT COUNT(*) FROM exchange_rates").Scan(&n); err != nil {
		t.Fatalf("count rates: %v", err)
	}
	return n
}
