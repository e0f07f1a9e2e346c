package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ErrPersistence wraps every unexpected storage fault.
var ErrPersistence = errors.New("persistence error")

// InsertResult reports the outcome of a single Insert.
type InsertResult int

// Insert outcomes. A uniqueness conflict is not a failure.
const (
	Inserted InsertResult = iota + 1
	DuplicateSkipped
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case DuplicateSkipped:
		return "duplicate_skipped"
	default:
		return "unknown"
	}
}

// Observation is one exchange-rate fact: Rate base-currency units per one unit of CurrencyCode.
type Observation struct {
	ID            int64
	CurrencyCode  string
	TableType     string
	Rate          decimal.Decimal
	EffectiveDate time.Time
	RecordedAt    time.Time
}

// RateRepository defines DB operations for rate observations.
type RateRepository interface {
	Insert(ctx context.Context, o Observation) (InsertResult, error)
	LatestPerCurrency(ctx context.Context, table string, codes []string) (map[string]decimal.Decimal, error)
	RangeQuery(ctx context.Context, q RangeQuery) ([]Observation, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresRateRepository is an implementation of RateRepository using PostgreSQL.
type PostgresRateRepository struct {
	db *sql.DB
}

// NewPostgresRateRepository creates a new PostgresRateRepository.
func NewPostgresRateRepository(db *sql.DB) *PostgresRateRepository {
	return &PostgresRateRepository{db: db}
}

// Insert stores one observation. An existing (currency, date, table) row yields DuplicateSkipped.
func (r *PostgresRateRepository) Insert(ctx context.Context, o Observation) (InsertResult, error) {
	query := `INSERT INTO exchange_rates (currency_code, table_type, rate, effective_date, recorded_at)
              VALUES ($1, $2, $3::numeric, $4::date, NOW())
              ON CONFLICT (currency_code, effective_date, table_type) DO NOTHING
              RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		o.CurrencyCode, o.TableType, o.Rate.String(), o.EffectiveDate.Format(dateLayout),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return DuplicateSkipped, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: insert %s %s: %w", ErrPersistence, o.CurrencyCode, o.EffectiveDate.Format(dateLayout), err)
	}
	return Inserted, nil
}

// LatestPerCurrency returns, for each code with at least one row, the rate of its newest effective date.
func (r *PostgresRateRepository) LatestPerCurrency(ctx context.Context, table string, codes []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	query := `SELECT DISTINCT ON (currency_code) currency_code, rate
              FROM exchange_rates
              WHERE table_type = $1 AND currency_code = ANY($2)
              ORDER BY currency_code, effective_date DESC`

	rows, err := r.db.QueryContext(ctx, query, table, codes)
	if err != nil {
		return nil, fmt.Errorf("%w: latest rates: %w", ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var rate decimal.Decimal
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("%w: scan latest rate: %w", ErrPersistence, err)
		}
		out[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: latest rates: %w", ErrPersistence, err)
	}
	return out, nil
}

// RangeQuery returns one page of observations and the total number of matching rows.
func (r *PostgresRateRepository) RangeQuery(ctx context.Context, q RangeQuery) ([]Observation, int, error) {
	q = NormalizeRangeQuery(q)

	where := `WHERE effective_date >= $1::date`
	args := []any{q.From.Format(dateLayout)}
	if q.Table != "" {
		where += ` AND table_type = $2`
		args = append(args, q.Table)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchange_rates `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count rates: %w", ErrPersistence, err)
	}
	if total == 0 {
		return []Observation{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT id, currency_code, table_type, rate, effective_date, recorded_at
              FROM exchange_rates %s
              ORDER BY %s
              LIMIT $%d OFFSET $%d`, where, orderBy(q), n+1, n+2)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list rates: %w", ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]Observation, 0, q.PageSize)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scan rate: %w", ErrPersistence, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: list rates: %w", ErrPersistence, err)
	}
	return out, total, nil
}

// DeleteOlderThan removes rows with effective_date strictly before cutoff.
func (r *PostgresRateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	day := cutoff.Format(dateLayout)

	var count int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exchange_rates WHERE effective_date < $1::date`, day,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count stale rates: %w", ErrPersistence, err)
	}
	if count == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM exchange_rates WHERE effective_date < $1::date`, day)
	if err != nil {
		return 0, fmt.Errorf("%w: delete stale rates: %w", ErrPersistence, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return count, nil
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (Observation, error) {
	var o Observation
	err := row.Scan(&o.ID, &o.CurrencyCode, &o.TableType, &o.Rate, &o.EffectiveDate, &o.RecordedAt)
	if err != nil {
		return Observation{}, err
	}
	o.EffectiveDate = time.Date(o.EffectiveDate.Year(), o.EffectiveDate.Month(), o.EffectiveDate.Day(), 0, 0, 0, 0, time.UTC)
	return o, nil
}
