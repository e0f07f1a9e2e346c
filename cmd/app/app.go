package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"currencyrates/internal/config"
	"currencyrates/internal/events"
	"currencyrates/internal/metrics"
	"currencyrates/internal/provider"
	"currencyrates/internal/repository"
	"currencyrates/internal/service"
	"currencyrates/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg         *config.Config
	logger      *zap.SugaredLogger
	db          *sql.DB
	rdbCache    *redis.Client
	rdbAsynq    *redis.Client
	asynqClient *asynq.Client
	asynqServer *asynq.Server
	asynqMux    *asynq.ServeMux
	publisher   events.Publisher
	registry    *prometheus.Registry
	scheduler   *worker.Scheduler
	httpServer  *http.Server

	// closers run in reverse order of registration.
	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// NewApp connects storage, builds services and routes. On failure every
// connection opened so far is closed.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	for _, step := range []func() error{app.initStorage, app.initServices} {
		if err := step(); err != nil {
			_ = app.close()
			return nil, err
		}
	}
	return app, nil
}

func (app *App) onClose(name string, fn func() error) {
	app.closers = append(app.closers, closer{name: name, fn: fn})
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s close: %w", c.name, err))
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(&app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db
	app.onClose("db", db.Close)

	if err := repository.RunMigrations(db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.CacheAddr})
	app.onClose("redis cache", app.rdbCache.Close)
	if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)
	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.onClose("redis asynq", app.rdbAsynq.Close)
	app.asynqClient = asynq.NewClient(redisOpt)
	app.onClose("asynq client", app.asynqClient.Close)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			TaskCheckInterval:        time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	importMetrics := metrics.NewImportMetrics(app.registry)

	app.publisher = newPublisher(app.cfg.Kafka, app.logger)
	app.onClose("publisher", app.publisher.Close)

	source := provider.NewNBPClient(app.cfg.NBP.BaseURL, app.cfg.NBP.TimeoutSec, app.logger)
	rateRepo := repository.NewPostgresRateRepository(app.db)
	stateRepo := repository.NewPostgresImportStateRepository(app.db)
	ratesCache := service.NewRatesCache(
		app.rdbCache,
		time.Duration(app.cfg.Conversion.CacheTTLSec)*time.Second,
		app.logger,
	)

	importService := service.NewImportService(
		source,
		rateRepo,
		stateRepo,
		app.logger,
		app.cfg.Importer,
		service.WithPublisher(app.publisher),
		service.WithMetrics(importMetrics),
		service.WithCacheInvalidator(ratesCache),
	)
	converter := service.NewConverter(rateRepo, ratesCache, app.logger, app.cfg.Conversion)
	lister := service.NewListingService(rateRepo, app.logger, app.cfg.Listing, app.cfg.Importer.Location())

	if app.cfg.Importer.ScheduleEnabled {
		scheduler, err := worker.NewScheduler(importService, app.cfg.Importer, app.logger)
		if err != nil {
			return fmt.Errorf("init import scheduler: %w", err)
		}
		app.scheduler = scheduler
	}

	asynqEnqueuer := worker.NewAsynqEnqueuer(
		app.asynqClient,
		app.cfg.Worker.MaxRetry,
		time.Duration(app.cfg.Worker.TimeoutSec)*time.Second,
	)

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(worker.TaskTypeBackfill, worker.NewBackfillHandler(importService, app.logger))

	app.initHTTP(importService, lister, converter, asynqEnqueuer)
	return nil
}

func newPublisher(cfg config.KafkaConfig, logger *zap.SugaredLogger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Infow("Kafka brokers not configured, import events disabled")
		return events.NopPublisher{}
	}
	logger.Infow("Publishing import events", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// Run serves HTTP, processes backfill tasks and fires the import schedule
// until ctx is canceled or one of them fails, then shuts everything down.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}
		app.logger.Infow("Backfill worker started", "concurrency", app.cfg.Worker.Concurrency)
		<-ctx.Done()
		return nil
	})

	if app.scheduler != nil {
		g.Go(func() error { return app.scheduler.Run(ctx) })
	} else {
		app.logger.Infow("Import schedule disabled; use /cron/import or ratesctl")
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	// Connections close only after the scheduler has let a running import finish.
	err := g.Wait()
	if cerr := app.close(); cerr != nil {
		app.logger.Errorw("Connection cleanup errors", "error", cerr)
		err = errors.Join(err, cerr)
	}
	app.logger.Infow("Shutdown complete")
	return err
}

// shutdown stops HTTP intake, then drains the backfill worker.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	app.asynqServer.Shutdown()
	return errors.Join(errs...)
}
