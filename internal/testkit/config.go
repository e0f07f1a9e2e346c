// Package testkit starts Postgres and Redis for integration tests and serves canned NBP tables.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven settings of the integration infrastructure.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string // If set, no Postgres container is started.
	RedisAddr      string // If set, no Redis container is started.
	StartupTimeout time.Duration
	KeepContainers bool
}

// LoadConfig reads CURRENCYRATES_TEST_* variables.
func LoadConfig() Config {
	return Config{
		PGImage:        envOr("CURRENCYRATES_TEST_PG_IMAGE", "postgres:17-alpine"),
		RedisImage:     envOr("CURRENCYRATES_TEST_REDIS_IMAGE", "redis:7.4-alpine"),
		PGDSN:          os.Getenv("CURRENCYRATES_TEST_PG_DSN"),
		RedisAddr:      os.Getenv("CURRENCYRATES_TEST_REDIS_ADDR"),
		StartupTimeout: envDuration("CURRENCYRATES_TEST_STARTUP_TIMEOUT", 90*time.Second),
		KeepContainers: envBool("CURRENCYRATES_TEST_KEEP_CONTAINERS", false),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration accepts a Go duration ("2m") or whole seconds ("120").
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	fmt.Fprintf(os.Stderr, "testkit: ignoring %s=%q, using %v\n", key, v, def)
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: ignoring %s=%q, using %v\n", key, v, def)
		return def
	}
	return b
}
