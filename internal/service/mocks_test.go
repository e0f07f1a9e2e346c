package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"currencyrates/internal/events"
	"currencyrates/internal/provider"
	"currencyrates/internal/repository"
)

// Mock rate source
type mockSource struct {
	fetchFunc func(ctx context.Context, table string, spec provider.DateSpec) ([]byte, error)
	calls     int
}

func (m *mockSource) FetchTables(ctx context.Context, table string, spec provider.DateSpec) ([]byte, error) {
	m.calls++
	return m.fetchFunc(ctx, table, spec)
}

// Mock rate repository
type mockRateRepo struct {
	insertFunc          func(ctx context.Context, o repository.Observation) (repository.InsertResult, error)
	latestFunc          func(ctx context.Context, table string, codes []string) (map[string]decimal.Decimal, error)
	rangeQueryFunc      func(ctx context.Context, q repository.RangeQuery) ([]repository.Observation, int, error)
	deleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockRateRepo) Insert(ctx context.Context, o repository.Observation) (repository.InsertResult, error) {
	return m.insertFunc(ctx, o)
}

func (m *mockRateRepo) LatestPerCurrency(ctx context.Context, table string, codes []string) (map[string]decimal.Decimal, error) {
	return m.latestFunc(ctx, table, codes)
}

func (m *mockRateRepo) RangeQuery(ctx context.Context, q repository.RangeQuery) ([]repository.Observation, int, error) {
	return m.rangeQueryFunc(ctx, q)
}

func (m *mockRateRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteOlderThanFunc == nil {
		return 0, nil
	}
	return m.deleteOlderThanFunc(ctx, cutoff)
}

// Mock import state repository
type mockStateRepo struct {
	tryAcquireLockFunc func(ctx context.Context, name string, now time.Time, ttl time.Duration) (bool, error)
	getWatermarkFunc   func(ctx context.Context, table string) (time.Time, bool, error)
	setWatermarkFunc   func(ctx context.Context, table string, date time.Time) error

	mu       sync.Mutex
	released int
}

func (m *mockStateRepo) TryAcquireLock(ctx context.Context, name string, now time.Time, ttl time.Duration) (bool, error) {
	if m.tryAcquireLockFunc == nil {
		return true, nil
	}
	return m.tryAcquireLockFunc(ctx, name, now, ttl)
}

func (m *mockStateRepo) ReleaseLock(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	return nil
}

func (m *mockStateRepo) GetWatermark(ctx context.Context, table string) (time.Time, bool, error) {
	if m.getWatermarkFunc == nil {
		return time.Time{}, false, nil
	}
	return m.getWatermarkFunc(ctx, table)
}

func (m *mockStateRepo) SetWatermark(ctx context.Context, table string, date time.Time) error {
	if m.setWatermarkFunc == nil {
		return nil
	}
	return m.setWatermarkFunc(ctx, table, date)
}

// Mock event publisher
type mockPublisher struct {
	events []events.RatesImported
}

func (m *mockPublisher) PublishRatesImported(_ context.Context, e events.RatesImported) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// Mock cache invalidator
type mockInvalidator struct {
	tables []string
}

func (m *mockInvalidator) Invalidate(_ context.Context, table string) error {
	m.tables = append(m.tables, table)
	return nil
}
