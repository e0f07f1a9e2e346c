// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NBP        NBPConfig `mapstructure:"nbp"`
	Importer   ImporterConfig
	Listing    ListingConfig
	Conversion ConversionConfig
	Worker     WorkerConfig
	Kafka      KafkaConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
	ServeMetrics  bool `mapstructure:"serve_metrics"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the backfill task queue.
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the latest-rates cache.
}

// NBPConfig holds settings for the NBP rate source.
type NBPConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// ImporterConfig holds settings of the scheduled import.
type ImporterConfig struct {
	Table           string `mapstructure:"table"`
	ScheduleEnabled bool   `mapstructure:"schedule_enabled"`
	CronSpec        string `mapstructure:"cron_spec"`
	Timezone        string `mapstructure:"timezone"`
	LockTTLSec      int    `mapstructure:"lock_ttl_sec"`
	RunTimeoutSec   int    `mapstructure:"run_timeout_sec"`
	RetentionDays   int    `mapstructure:"retention_days"` // <= 0 keeps history forever.
	CronToken       string `mapstructure:"cron_token"`
}

// LockTTL returns the lock expiry as a duration.
func (c ImporterConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSec) * time.Second
}

// Location resolves the configured timezone, falling back to UTC.
func (c ImporterConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ListingConfig holds settings of the read listing.
type ListingConfig struct {
	WindowDays      int `mapstructure:"window_days"`
	DefaultPageSize int `mapstructure:"default_page_size"`
}

// ConversionConfig holds settings of the conversion read path.
type ConversionConfig struct {
	BaseCurrency      string `mapstructure:"base_currency"`
	AllowedCurrencies string `mapstructure:"allowed_currencies"` // comma-separated ISO codes
	CacheTTLSec       int    `mapstructure:"cache_ttl_sec"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetry         int `mapstructure:"max_retry"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// KafkaConfig holds settings for import event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("CURRENCYRATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Env values for string slices arrive as a single comma-separated string.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	cfg.Importer.Table = strings.ToUpper(strings.TrimSpace(cfg.Importer.Table))
	cfg.Conversion.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.Conversion.BaseCurrency))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("server.serve_metrics", true)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ratesdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("nbp.base_url", "https://api.nbp.pl/api/")
	v.SetDefault("nbp.timeout_sec", 10)
	v.SetDefault("importer.table", "A")
	v.SetDefault("importer.schedule_enabled", true)
	v.SetDefault("importer.cron_spec", "15 12 * * *")
	v.SetDefault("importer.timezone", "Europe/Warsaw")
	v.SetDefault("importer.lock_ttl_sec", 15*60)
	v.SetDefault("importer.run_timeout_sec", 120)
	v.SetDefault("importer.retention_days", 30)
	v.SetDefault("importer.cron_token", "")
	v.SetDefault("listing.window_days", 30)
	v.SetDefault("listing.default_page_size", 30)
	v.SetDefault("conversion.base_currency", "PLN")
	v.SetDefault("conversion.allowed_currencies", "EUR,USD,CZK")
	v.SetDefault("conversion.cache_ttl_sec", 600)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.timeout_sec", 60)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "currency-rates.imported")
	v.SetDefault("log.enabled", true)
	v.SetDefault("log.level", "info")
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set CURRENCYRATES_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set CURRENCYRATES_REDIS_CACHE_ADDR)"))
	}

	if c.NBP.BaseURL == "" {
		errs = append(errs, fmt.Errorf("nbp.base_url is required"))
	}
	if c.NBP.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("nbp.timeout_sec must be positive, got %d", c.NBP.TimeoutSec))
	}

	if c.Importer.Table != "A" {
		errs = append(errs, fmt.Errorf("importer.table: only table A is imported on schedule, got %q", c.Importer.Table))
	}
	if c.Importer.ScheduleEnabled && c.Importer.CronSpec == "" {
		errs = append(errs, fmt.Errorf("importer.cron_spec is required when the schedule is enabled"))
	}
	if _, err := time.LoadLocation(c.Importer.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("importer.timezone %q is invalid: %w", c.Importer.Timezone, err))
	}
	if c.Importer.LockTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("importer.lock_ttl_sec must be positive, got %d", c.Importer.LockTTLSec))
	}
	if c.Importer.RunTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("importer.run_timeout_sec must be positive, got %d", c.Importer.RunTimeoutSec))
	}

	if c.Listing.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("listing.window_days must be positive, got %d", c.Listing.WindowDays))
	}

	if len(c.Conversion.BaseCurrency) != 3 {
		errs = append(errs, fmt.Errorf("conversion.base_currency must be a 3-letter code, got %q", c.Conversion.BaseCurrency))
	}
	if c.Conversion.CacheTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("conversion.cache_ttl_sec must be positive, got %d", c.Conversion.CacheTTLSec))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, fmt.Errorf("kafka.topic is required when kafka.brokers is set"))
	}

	return errors.Join(errs...)
}
