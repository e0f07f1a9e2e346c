package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/provider"
	"currencyrates/internal/service"
)

type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportDate(ctx context.Context, date, table string) (*service.ImportSummary, error) {
	args := m.Called(ctx, date, table)
	sum, _ := args.Get(0).(*service.ImportSummary)
	return sum, args.Error(1)
}

func (m *MockImporter) ImportRange(ctx context.Context, from, to, table string) (*service.ImportSummary, error) {
	args := m.Called(ctx, from, to, table)
	sum, _ := args.Get(0).(*service.ImportSummary)
	return sum, args.Error(1)
}

func (m *MockImporter) ImportTodaySafely(ctx context.Context, table string) *service.ImportSummary {
	args := m.Called(ctx, table)
	return args.Get(0).(*service.ImportSummary)
}

func backfillTask(t *testing.T, p BackfillPayload) *asynq.Task {
	t.Helper()
	task, err := NewBackfillTask(p, 3, time.Minute)
	require.NoError(t, err)
	return task
}

func TestBackfillHandler(t *testing.T) {
	logger := zap.NewNop().Sugar()
	payload := BackfillPayload{From: "2025-11-01", To: "2025-11-05", Table: "A"}

	t.Run("success", func(t *testing.T) {
		m := new(MockImporter)
		m.On("ImportRange", mock.Anything, "2025-11-01", "2025-11-05", "A").
			Return(&service.ImportSummary{Status: service.StatusOK, Table: "A", Inserted: 96}, nil)

		err := NewBackfillHandler(m, logger)(context.Background(), backfillTask(t, payload))
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("invalid payload is not retried", func(t *testing.T) {
		m := new(MockImporter)
		err := NewBackfillHandler(m, logger)(context.Background(), asynq.NewTask(TaskTypeBackfill, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		m.AssertNotCalled(t, "ImportRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad range is not retried", func(t *testing.T) {
		m := new(MockImporter)
		m.On("ImportRange", mock.Anything, "2025-11-01", "2025-11-05", "A").Return(nil, service.ErrInvalidDateRange)

		err := NewBackfillHandler(m, logger)(context.Background(), backfillTask(t, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.ErrorIs(t, err, service.ErrInvalidDateRange)
	})

	t.Run("source failure is retried", func(t *testing.T) {
		m := new(MockImporter)
		m.On("ImportRange", mock.Anything, "2025-11-01", "2025-11-05", "A").Return(nil, provider.ErrSourceUnavailable)

		err := NewBackfillHandler(m, logger)(context.Background(), backfillTask(t, payload))
		assert.ErrorIs(t, err, provider.ErrSourceUnavailable)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestNewBackfillTask(t *testing.T) {
	task := backfillTask(t, BackfillPayload{From: "yesterday", To: "today", Table: "B"})
	assert.Equal(t, TaskTypeBackfill, task.Type())

	var got BackfillPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, BackfillPayload{From: "yesterday", To: "today", Table: "B"}, got)
}

func TestScheduler(t *testing.T) {
	cfg := config.ImporterConfig{Table: "A", CronSpec: "15 12 * * *", Timezone: "UTC", RunTimeoutSec: 5}

	t.Run("run once bounds the context", func(t *testing.T) {
		m := new(MockImporter)
		m.On("ImportTodaySafely", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), "A").Return(&service.ImportSummary{Status: service.StatusError, Table: "A", Message: "boom"})

		s, err := NewScheduler(m, cfg, zap.NewNop().Sugar())
		require.NoError(t, err)

		sum := s.RunOnce(context.Background())
		assert.Equal(t, service.StatusError, sum.Status)
		m.AssertExpectations(t)
	})

	t.Run("next run follows the cron expression", func(t *testing.T) {
		s, err := NewScheduler(new(MockImporter), cfg, zap.NewNop().Sugar())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		require.Eventually(t, func() bool { return !s.nextRun().IsZero() }, time.Second, 10*time.Millisecond)
		next := s.nextRun().UTC()
		assert.Equal(t, 12, next.Hour())
		assert.Equal(t, 15, next.Minute())

		cancel()
		assert.NoError(t, <-done)
	})

	t.Run("invalid spec", func(t *testing.T) {
		bad := cfg
		bad.CronSpec = "every day at noon"
		_, err := NewScheduler(new(MockImporter), bad, zap.NewNop().Sugar())
		assert.Error(t, err)
	})
}
