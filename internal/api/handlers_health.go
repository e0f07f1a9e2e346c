package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status string `json:"status" example:"ready"`
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// DBCheck probes Postgres and the rates table created by migrations.
func DBCheck(db *sql.DB) ReadinessCheck {
	return ReadinessCheck{Name: "DB", Check: func(ctx context.Context) error {
		var n int
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT 1 FROM exchange_rates LIMIT 1) AS probe`).Scan(&n)
	}}
}

// RedisCheck probes a Redis client. A nil client is skipped.
func RedisCheck(name string, rdb *redis.Client) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: func(ctx context.Context) error {
		if rdb == nil {
			return nil
		}
		return rdb.Ping(ctx).Err()
	}}
}

// HandleHealthz godoc
// @Summary Health check (liveness)
// @Description Always returns 200 OK if the service is running. Used for liveness probes.
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleReadyz godoc
// @Summary Readiness check
// @Description Checks Postgres (including the migrated schema), the cache Redis and the queue Redis. Returns 200 only when all are reachable.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse "All dependencies ready"
// @Failure 503 {object} ErrorResponse "At least one dependency unavailable"
// @Router /readyz [get]
func HandleReadyz(checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, c.Name+" not ready")
				return
			}
		}
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
	}
}
