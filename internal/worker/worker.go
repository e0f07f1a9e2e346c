// Package worker runs imports in the background: scheduled daily runs and queued backfills.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"currencyrates/internal/service"
)

// TaskTypeBackfill is the Asynq task type for range backfill jobs.
const TaskTypeBackfill = "rates:backfill"

// BackfillPayload is the payload of a backfill task. Dates accept any form ImportRange does.
type BackfillPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Table string `json:"table"`
}

// NewBackfillHandler returns a function to handle backfill tasks.
// Input the importer rejects is not retried; source and storage faults are.
func NewBackfillHandler(svc service.Importer, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload BackfillPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return fmt.Errorf("decode backfill payload: %v: %w", err, asynq.SkipRetry)
		}

		sum, err := svc.ImportRange(ctx, payload.From, payload.To, payload.Table)
		if err != nil {
			logger.Errorw("Backfill failed", "from", payload.From, "to", payload.To, "table", payload.Table, "error", err)
			if isPermanent(err) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return err
		}

		logger.Infow("Backfill completed",
			"from", payload.From, "to", payload.To, "table", sum.Table,
			"inserted", sum.Inserted, "skipped", sum.Skipped, "errors", sum.Errors, "pruned", sum.Pruned)
		return nil
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, service.ErrInvalidDateFormat) ||
		errors.Is(err, service.ErrInvalidDateRange) ||
		errors.Is(err, service.ErrUnsupportedTable)
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueBackfill enqueues a backfill task and returns its ID.
func (e *AsynqEnqueuer) EnqueueBackfill(ctx context.Context, payload BackfillPayload) (string, error) {
	task, err := NewBackfillTask(payload, e.maxRetry, e.timeout)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// NewBackfillTask builds the Asynq task for payload.
func NewBackfillTask(payload BackfillPayload, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBackfill, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	), nil
}
