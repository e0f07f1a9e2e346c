package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/service"
)

// Scheduler triggers ImportTodaySafely on a cron spec in the importer's timezone.
type Scheduler struct {
	cron     *cron.Cron
	importer service.Importer
	table    string
	timeout  time.Duration
	log      *zap.SugaredLogger
	baseCtx  context.Context
}

// NewScheduler registers the daily import job. The expression uses the standard five fields.
func NewScheduler(importer service.Importer, cfg config.ImporterConfig, logger *zap.SugaredLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		importer: importer,
		table:    cfg.Table,
		timeout:  time.Duration(cfg.RunTimeoutSec) * time.Second,
		log:      logger,
		baseCtx:  context.Background(),
	}
	if _, err := s.cron.AddFunc(cfg.CronSpec, func() { s.RunOnce(s.baseCtx) }); err != nil {
		return nil, fmt.Errorf("add cron func %q: %w", cfg.CronSpec, err)
	}
	return s, nil
}

// RunOnce performs one scheduled import bounded by the run timeout.
func (s *Scheduler) RunOnce(ctx context.Context) *service.ImportSummary {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sum := s.importer.ImportTodaySafely(ctx, s.table)
	if sum.Status == service.StatusError {
		s.log.Errorw("Scheduled job failed", "table", sum.Table, "message", sum.Message)
	}
	return sum
}

// Run starts the cron loop and blocks until ctx is done, then waits for a running job.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	s.cron.Start()
	s.log.Infow("Import scheduler started", "next_run", s.nextRun())
	defer func() {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}()

	<-ctx.Done()
	return nil
}

func (s *Scheduler) nextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
