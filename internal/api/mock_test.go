package api

import (
	"context"

	"github.com/shopspring/decimal"

	"currencyrates/internal/service"
	"currencyrates/internal/worker"
)

// mockImporter implements service.Importer for testing.
type mockImporter struct {
	importTodayFunc func(ctx context.Context, table string) *service.ImportSummary
}

func (m *mockImporter) ImportDate(_ context.Context, _, _ string) (*service.ImportSummary, error) {
	return nil, nil // Not used in handler tests
}

func (m *mockImporter) ImportRange(_ context.Context, _, _, _ string) (*service.ImportSummary, error) {
	return nil, nil // Not used in handler tests
}

func (m *mockImporter) ImportTodaySafely(ctx context.Context, table string) *service.ImportSummary {
	return m.importTodayFunc(ctx, table)
}

// mockLister implements service.Lister for testing.
type mockLister struct {
	listFunc func(ctx context.Context, req service.ListingRequest) (*service.ListingPage, error)
}

func (m *mockLister) List(ctx context.Context, req service.ListingRequest) (*service.ListingPage, error) {
	return m.listFunc(ctx, req)
}

// mockConverter implements service.ConverterInterface for testing.
type mockConverter struct {
	targets     []string
	convertFunc func(ctx context.Context, amount decimal.Decimal, source string, targets []string) []service.Conversion
}

func (m *mockConverter) Convert(ctx context.Context, amount decimal.Decimal, source string, targets []string) []service.Conversion {
	return m.convertFunc(ctx, amount, source, targets)
}

func (m *mockConverter) AllowedTargets() []string {
	return m.targets
}

// mockEnqueuer implements BackfillEnqueuer for testing.
type mockEnqueuer struct {
	enqueueFunc func(ctx context.Context, payload worker.BackfillPayload) (string, error)
}

func (m *mockEnqueuer) EnqueueBackfill(ctx context.Context, payload worker.BackfillPayload) (string, error) {
	return m.enqueueFunc(ctx, payload)
}
