// Command ratesctl runs imports and schema maintenance outside the service.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/events"
	"currencyrates/internal/logger"
	"currencyrates/internal/provider"
	"currencyrates/internal/repository"
	"currencyrates/internal/service"
)

const usage = `usage: ratesctl <command> [flags]

commands:
  import-date   --date=YYYY-MM-DD|today|yesterday [--table=A]
  import-range  --from=YYYY-MM-DD --to=YYYY-MM-DD [--table=A]
  teardown      --yes   drop all rate history and import state
`

var errUsage = errors.New("invalid usage")

// command is a parsed ratesctl invocation.
type command struct {
	name  string
	date  string
	from  string
	to    string
	table string
	yes   bool
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}
	cmd := command{name: args[0]}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	switch cmd.name {
	case "import-date":
		fs.StringVar(&cmd.date, "date", "today", "date to import")
		fs.StringVar(&cmd.table, "table", "A", "NBP table (A or B)")
	case "import-range":
		fs.StringVar(&cmd.from, "from", "", "first date of the range")
		fs.StringVar(&cmd.to, "to", "", "last date of the range")
		fs.StringVar(&cmd.table, "table", "A", "NBP table (A or B)")
	case "teardown":
		fs.BoolVar(&cmd.yes, "yes", false, "confirm dropping all data")
	default:
		return command{}, fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return command{}, fmt.Errorf("%w: %w", errUsage, err)
	}

	switch {
	case cmd.name == "import-range" && (cmd.from == "" || cmd.to == ""):
		return command{}, fmt.Errorf("%w: import-range requires --from and --to", errUsage)
	case cmd.name == "teardown" && !cmd.yes:
		return command{}, fmt.Errorf("%w: teardown requires --yes", errUsage)
	}
	return cmd, nil
}

func main() {
	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd, cfg, sugar, os.Stdout); err != nil {
		sugar.Fatalw("Command failed", "command", cmd.name, "error", err)
	}
}

func run(ctx context.Context, cmd command, cfg *config.Config, logger *zap.SugaredLogger, out io.Writer) error {
	db, err := repository.NewPostgresDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	defer db.Close()

	if cmd.name == "teardown" {
		return repository.DropSchema(db, logger)
	}

	if err := repository.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	svc, cleanup := newImportService(db, cfg, logger)
	defer cleanup()

	var sum *service.ImportSummary
	switch cmd.name {
	case "import-date":
		sum, err = svc.ImportDate(ctx, cmd.date, cmd.table)
	case "import-range":
		sum, err = svc.ImportRange(ctx, cmd.from, cmd.to, cmd.table)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func newImportService(db *sql.DB, cfg *config.Config, logger *zap.SugaredLogger) (*service.ImportService, func()) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.CacheAddr})
	cache := service.NewRatesCache(rdb, time.Duration(cfg.Conversion.CacheTTLSec)*time.Second, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	svc := service.NewImportService(
		provider.NewNBPClient(cfg.NBP.BaseURL, cfg.NBP.TimeoutSec, logger),
		repository.NewPostgresRateRepository(db),
		repository.NewPostgresImportStateRepository(db),
		logger,
		cfg.Importer,
		service.WithPublisher(publisher),
		service.WithCacheInvalidator(cache),
	)
	return svc, func() {
		_ = publisher.Close()
		_ = rdb.Close()
	}
}
