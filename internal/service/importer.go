package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/events"
	"currencyrates/internal/metrics"
	"currencyrates/internal/provider"
	"currencyrates/internal/repository"
)

const importLockName = "nbp-import"

// Importer defines the import entry points used by the HTTP layer, the scheduler and the worker.
type Importer interface {
	ImportDate(ctx context.Context, date, table string) (*ImportSummary, error)
	ImportRange(ctx context.Context, from, to, table string) (*ImportSummary, error)
	ImportTodaySafely(ctx context.Context, table string) *ImportSummary
}

// CacheInvalidator drops cached latest rates of a table after new rows land.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, table string) error
}

// ImportService fetches NBP tables and stores them as observations.
type ImportService struct {
	source    provider.RatesSource
	rates     repository.RateRepository
	state     repository.ImportStateRepository
	log       *zap.SugaredLogger
	cfg       config.ImporterConfig
	loc       *time.Location
	now       func() time.Time
	publisher events.Publisher
	metrics   *metrics.ImportMetrics
	cache     CacheInvalidator
}

// ImportOption customizes an ImportService.
type ImportOption func(*ImportService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ImportOption {
	return func(s *ImportService) { s.now = now }
}

// WithPublisher sets where RatesImported events go.
func WithPublisher(p events.Publisher) ImportOption {
	return func(s *ImportService) { s.publisher = p }
}

// WithMetrics records scheduled runs on m.
func WithMetrics(m *metrics.ImportMetrics) ImportOption {
	return func(s *ImportService) { s.metrics = m }
}

// WithCacheInvalidator clears cached rates after each import that inserted rows.
func WithCacheInvalidator(c CacheInvalidator) ImportOption {
	return func(s *ImportService) { s.cache = c }
}

// NewImportService creates a new ImportService.
func NewImportService(source provider.RatesSource, rates repository.RateRepository, state repository.ImportStateRepository, logger *zap.SugaredLogger, cfg config.ImporterConfig, opts ...ImportOption) *ImportService {
	s := &ImportService{
		source:    source,
		rates:     rates,
		state:     state,
		log:       logger,
		cfg:       cfg,
		loc:       cfg.Location(),
		now:       time.Now,
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportDate imports one day's table and prunes old history. Errors are returned to the caller.
func (s *ImportService) ImportDate(ctx context.Context, date, table string) (*ImportSummary, error) {
	start := s.now()
	table, err := NormalizeTable(table)
	if err != nil {
		return nil, err
	}
	day, err := ParseDate(date, start, s.loc)
	if err != nil {
		return nil, err
	}

	sum, err := s.importSpec(ctx, table, provider.OnDate(day))
	if err != nil {
		return nil, err
	}
	sum.DurationMs = s.now().Sub(start).Milliseconds()
	return sum, nil
}

// ImportRange imports every table published between from and to inclusive, then prunes.
func (s *ImportService) ImportRange(ctx context.Context, from, to, table string) (*ImportSummary, error) {
	start := s.now()
	table, err := NormalizeTable(table)
	if err != nil {
		return nil, err
	}
	fromDay, err := ParseDate(from, start, s.loc)
	if err != nil {
		return nil, err
	}
	toDay, err := ParseDate(to, start, s.loc)
	if err != nil {
		return nil, err
	}
	if err := ValidateRange(fromDay, toDay); err != nil {
		return nil, err
	}

	sum, err := s.importSpec(ctx, table, provider.Between(fromDay, toDay))
	if err != nil {
		return nil, err
	}
	sum.DurationMs = s.now().Sub(start).Milliseconds()
	return sum, nil
}

// ImportTodaySafely is the scheduled entry point. It never returns an error:
// every fault is reported as StatusError in the summary, and the lock is
// always released.
func (s *ImportService) ImportTodaySafely(ctx context.Context, table string) *ImportSummary {
	start := s.now()
	sum := s.runToday(ctx, table)
	took := s.now().Sub(start)
	sum.DurationMs = took.Milliseconds()

	s.metrics.ObserveRun(string(sum.Status), sum.Reason, sum.Inserted, sum.Skipped, sum.Errors, sum.Pruned, took)
	s.log.Infow("Scheduled import finished",
		"status", sum.Status, "reason", sum.Reason, "table", sum.Table,
		"inserted", sum.Inserted, "skipped", sum.Skipped, "errors", sum.Errors,
		"pruned", sum.Pruned, "duration_ms", sum.DurationMs)
	return sum
}

func (s *ImportService) runToday(ctx context.Context, table string) (sum *ImportSummary) {
	table = strings.ToUpper(strings.TrimSpace(table))
	if table == "" {
		table = "A"
	}
	if table != "A" {
		return errorSummary(table, fmt.Errorf("%w: %q: only table A is imported on schedule", ErrUnsupportedTable, table))
	}

	today := s.today()
	last, found, err := s.state.GetWatermark(ctx, table)
	if err != nil {
		s.log.Errorw("Failed to read import watermark", "table", table, "error", err)
		return errorSummary(table, err)
	}
	if found && last.Equal(today) {
		return skippedSummary(table, ReasonAlreadyImported, today.Format(provider.DateLayout))
	}

	acquired, err := s.state.TryAcquireLock(ctx, importLockName, s.now(), s.cfg.LockTTL())
	if err != nil {
		s.log.Errorw("Failed to acquire import lock", "error", err)
		return errorSummary(table, err)
	}
	if !acquired {
		locked := skippedSummary(table, ReasonLocked)
		locked.Message = ErrLockContention.Error()
		return locked
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Scheduled import panicked", "table", table, "panic", r)
			sum = errorSummary(table, fmt.Errorf("import panicked: %v", r))
		}
		if err := s.state.ReleaseLock(context.WithoutCancel(ctx), importLockName); err != nil {
			s.log.Errorw("Failed to release import lock", "error", err)
		}
	}()

	res, err := s.importSpec(ctx, table, provider.OnDate(today))
	if err != nil {
		s.log.Errorw("Cron import error", "table", table, "error", err)
		return errorSummary(table, err)
	}

	// A holiday returns no tables; mark today anyway so the day is not refetched.
	mark := today
	if n := len(res.EffectiveDates); n > 0 {
		if latest, perr := time.Parse(provider.DateLayout, res.EffectiveDates[n-1]); perr == nil {
			mark = latest
		}
	}
	if err := s.state.SetWatermark(ctx, table, mark); err != nil {
		s.log.Errorw("Failed to update import watermark", "table", table, "error", err)
		return errorSummary(table, err)
	}
	return res
}

// importSpec fetches and persists one request worth of tables, then prunes.
// Stored rows invalidate the cache and emit the event even when pruning fails.
func (s *ImportService) importSpec(ctx context.Context, table string, spec provider.DateSpec) (*ImportSummary, error) {
	raw, err := s.source.FetchTables(ctx, table, spec)
	if err != nil {
		return nil, fmt.Errorf("fetch table %s for %s: %w", table, spec, err)
	}
	days, err := provider.ParseTables(raw)
	if err != nil {
		return nil, err
	}

	sum, err := s.persistTables(ctx, table, days)
	if err != nil {
		return nil, err
	}
	s.afterImport(ctx, sum)

	pruned, err := s.prune(ctx)
	if err != nil {
		return nil, err
	}
	sum.Pruned = pruned
	return sum, nil
}

func (s *ImportService) persistTables(ctx context.Context, table string, days []provider.TableDay) (*ImportSummary, error) {
	sum := newSummary(table)
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date, err := time.Parse(provider.DateLayout, day.EffectiveDate)
		if err != nil {
			s.log.Warnw("Skipping table with unreadable effective date", "effective_date", day.EffectiveDate, "rows", len(day.Rates))
			sum.Errors += len(day.Rates)
			continue
		}
		if !slices.Contains(sum.EffectiveDates, day.EffectiveDate) {
			sum.EffectiveDates = append(sum.EffectiveDates, day.EffectiveDate)
		}
		for _, row := range day.Rates {
			s.persistRow(ctx, table, date, row, sum)
		}
	}
	slices.Sort(sum.EffectiveDates)
	return sum, nil
}

func (s *ImportService) persistRow(ctx context.Context, table string, date time.Time, row provider.RateRow, sum *ImportSummary) {
	rate, err := decimal.NewFromString(row.Mid)
	if err != nil {
		sum.Errors++
		s.log.Errorw("Unreadable rate value", "code", row.Code, "effective_date", date.Format(provider.DateLayout), "mid", row.Mid)
		return
	}
	obs := repository.Observation{
		CurrencyCode:  strings.TrimSpace(row.Code),
		TableType:     table,
		Rate:          rate,
		EffectiveDate: date,
	}
	if err := ValidateObservation(obs); err != nil {
		sum.Errors++
		s.log.Errorw("Rejected rate row", "error", err)
		return
	}

	res, err := s.rates.Insert(ctx, obs)
	if err != nil {
		sum.Errors++
		s.log.Errorw("DB error inserting rate", "code", obs.CurrencyCode, "effective_date", date.Format(provider.DateLayout), "error", err)
		return
	}
	switch res {
	case repository.Inserted:
		sum.Inserted++
	case repository.DuplicateSkipped:
		sum.Skipped++
	}
}

// prune deletes observations older than the retention window.
func (s *ImportService) prune(ctx context.Context) (int64, error) {
	days, ok := RetentionDays(s.cfg.RetentionDays)
	if !ok {
		return 0, nil
	}
	cutoff := s.today().AddDate(0, 0, -days)
	n, err := s.rates.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune rates older than %s: %w", cutoff.Format(provider.DateLayout), err)
	}
	if n > 0 {
		s.log.Infow("Pruned old rates", "deleted", n, "cutoff", cutoff.Format(provider.DateLayout), "keep_days", days)
	}
	return n, nil
}

func (s *ImportService) afterImport(ctx context.Context, sum *ImportSummary) {
	if sum.Inserted == 0 {
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sum.Table); err != nil {
			s.log.Warnw("Failed to invalidate rates cache", "table", sum.Table, "error", err)
		}
	}
	event := events.RatesImported{
		Table:          sum.Table,
		EffectiveDates: sum.EffectiveDates,
		Inserted:       sum.Inserted,
		Skipped:        sum.Skipped,
		Errors:         sum.Errors,
		ImportedAt:     s.now().UTC(),
	}
	if err := s.publisher.PublishRatesImported(ctx, event); err != nil {
		s.log.Warnw("Failed to publish import event", "table", sum.Table, "error", err)
	}
}

func (s *ImportService) today() time.Time {
	return calendarDay(s.now().In(s.loc))
}
