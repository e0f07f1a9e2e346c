package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefixLatest = "rates:latest:"
	cacheKeyPrefixGen    = "rates:gen:"
)

// Both keys of a table share a hash tag so a transaction can watch one and write the other.
func latestRatesKey(table string) string {
	return cacheKeyPrefixLatest + "{" + table + "}"
}

func generationKey(table string) string {
	return cacheKeyPrefixGen + "{" + table + "}"
}

// NoGeneration makes Set a no-op.
const NoGeneration int64 = -1

var errStaleGeneration = errors.New("cache generation changed")

// RatesCache keeps the latest rate per currency of a table in a Redis hash.
// A nil *RatesCache, or one without a client, always misses.
type RatesCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.SugaredLogger
}

// NewRatesCache creates a new RatesCache.
func NewRatesCache(rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *RatesCache {
	return &RatesCache{rdb: rdb, ttl: ttl, log: logger}
}

// Get returns the cached rates of codes and the codes that were not cached.
func (c *RatesCache) Get(ctx context.Context, table string, codes []string) (map[string]decimal.Decimal, []string) {
	found := make(map[string]decimal.Decimal, len(codes))
	if c == nil || c.rdb == nil || len(codes) == 0 {
		return found, codes
	}

	vals, err := c.rdb.HMGet(ctx, latestRatesKey(table), codes...).Result()
	if err != nil || len(vals) != len(codes) {
		return found, codes
	}

	var missing []string
	for i, code := range codes {
		s, ok := asString(vals[i])
		if !ok {
			missing = append(missing, code)
			continue
		}
		rate, err := decimal.NewFromString(s)
		if err != nil {
			missing = append(missing, code)
			continue
		}
		found[code] = rate
	}
	return found, missing
}

// Generation returns the invalidation counter of table. Read it before loading
// rates from the store and pass it to Set.
func (c *RatesCache) Generation(ctx context.Context, table string) int64 {
	if c == nil || c.rdb == nil {
		return NoGeneration
	}
	gen, err := c.rdb.Get(ctx, generationKey(table)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0
	case err != nil:
		c.log.Warnw("Failed to read cache generation", "table", table, "error", err)
		return NoGeneration
	}
	return gen
}

// Set stores rates and refreshes the hash TTL, unless table was invalidated
// since gen was read.
func (c *RatesCache) Set(ctx context.Context, table string, gen int64, rates map[string]decimal.Decimal) {
	if c == nil || c.rdb == nil || gen == NoGeneration || len(rates) == 0 {
		return
	}

	fields := make([]any, 0, len(rates)*2)
	for code, rate := range rates {
		fields = append(fields, code, rate.String())
	}

	key, genKey := latestRatesKey(table), generationKey(table)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields...)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.log.Debugw("Skipped cache update after invalidation", "key", key)
	default:
		c.log.Warnw("Failed to update cache", "key", key, "error", err)
	}
}

// Invalidate drops every cached rate of table and bumps its generation.
func (c *RatesCache) Invalidate(ctx context.Context, table string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(table))
		pipe.Del(ctx, latestRatesKey(table))
		return nil
	})
	return err
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
