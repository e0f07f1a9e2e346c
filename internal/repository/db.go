// Package repository implements persistence of rate observations and import state.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"currencyrates/internal/config"
)

const pingTimeout = 5 * time.Second

// NewPostgresDB opens the pgx-backed pool described by cfg and verifies it answers.
// Pool limits fall back to 10 open, 5 idle and a 5 minute lifetime when unset.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: empty database DSN", ErrPersistence)
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrPersistence, err)
	}

	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 10))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	db.SetConnMaxLifetime(time.Duration(orDefault(cfg.ConnMaxLifetimeSec, 300)) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s:%d/%s: %w", ErrPersistence, cfg.Host, cfg.Port, cfg.Name, err)
	}
	return db, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
