package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportStateRepository holds the scheduled import's lock and per-table watermark.
type ImportStateRepository interface {
	TryAcquireLock(ctx context.Context, name string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
	GetWatermark(ctx context.Context, table string) (time.Time, bool, error)
	SetWatermark(ctx context.Context, table string, date time.Time) error
}

// PostgresImportStateRepository is an implementation of ImportStateRepository using PostgreSQL.
type PostgresImportStateRepository struct {
	db *sql.DB
}

// NewPostgresImportStateRepository creates a new PostgresImportStateRepository.
func NewPostgresImportStateRepository(db *sql.DB) *PostgresImportStateRepository {
	return &PostgresImportStateRepository{db: db}
}

// TryAcquireLock takes the named lock if it is free or was acquired at least ttl ago.
// The check and the write are a single statement, so two callers cannot both win.
func (r *PostgresImportStateRepository) TryAcquireLock(ctx context.Context, name string, now time.Time, ttl time.Duration) (bool, error) {
	query := `INSERT INTO import_locks (name, held, acquired_at)
              VALUES ($1, TRUE, $2)
              ON CONFLICT (name) DO UPDATE
                  SET held = TRUE, acquired_at = EXCLUDED.acquired_at
                  WHERE NOT import_locks.held
                     OR import_locks.acquired_at IS NULL
                     OR import_locks.acquired_at <= $3`

	res, err := r.db.ExecContext(ctx, query, name, now.UTC(), now.Add(-ttl).UTC())
	if err != nil {
		return false, fmt.Errorf("%w: acquire lock %s: %w", ErrPersistence, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: acquire lock %s: %w", ErrPersistence, name, err)
	}
	return n == 1, nil
}

// ReleaseLock clears the named lock regardless of who holds it.
func (r *PostgresImportStateRepository) ReleaseLock(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE import_locks SET held = FALSE, acquired_at = NULL WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("%w: release lock %s: %w", ErrPersistence, name, err)
	}
	return nil
}

// GetWatermark returns the last import date recorded for table. found is false when none exists.
func (r *PostgresImportStateRepository) GetWatermark(ctx context.Context, table string) (time.Time, bool, error) {
	var d time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT last_import_date FROM import_watermarks WHERE table_type = $1`, table,
	).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: read watermark %s: %w", ErrPersistence, table, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true, nil
}

// SetWatermark records date as the last import date of table.
func (r *PostgresImportStateRepository) SetWatermark(ctx context.Context, table string, date time.Time) error {
	query := `INSERT INTO import_watermarks (table_type, last_import_date, updated_at)
              VALUES ($1, $2::date, NOW())
              ON CONFLICT (table_type) DO UPDATE
                  SET last_import_date = EXCLUDED.last_import_date, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, table, date.Format(dateLayout)); err != nil {
		return fmt.Errorf("%w: write watermark %s: %w", ErrPersistence, table, err)
	}
	return nil
}
