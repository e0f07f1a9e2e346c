package testkit

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
)

// Suite owns the Postgres and Redis used by one integration test binary.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	redis *RedisModule
}

var (
	global     *Suite
	globalOnce sync.Once
)

// Global returns the process-wide Suite.
func Global() *Suite {
	globalOnce.Do(func() {
		global = &Suite{cfg: LoadConfig()}
	})
	return global
}

// Setup starts both dependencies. Calling it twice without Shutdown is an error.
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pg != nil {
		return fmt.Errorf("suite already set up")
	}

	pg, err := StartPostgres(ctx, &s.cfg)
	if err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	rdb, err := StartRedis(ctx, &s.cfg)
	if err != nil {
		if !s.cfg.KeepContainers {
			_ = pg.Terminate(ctx)
		}
		return fmt.Errorf("setup redis: %w", err)
	}
	s.pg, s.redis = pg, rdb
	return nil
}

// Shutdown terminates the containers unless they are kept for debugging.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pg == nil {
		return
	}
	if s.cfg.KeepContainers {
		fmt.Printf("keeping containers: postgres=%s redis=%s\n", s.pg.DSN(), s.redis.Addr())
	} else {
		if err := s.redis.Terminate(ctx); err != nil {
			fmt.Println("warning: terminate redis:", err)
		}
		if err := s.pg.Terminate(ctx); err != nil {
			fmt.Println("warning: terminate postgres:", err)
		}
	}
	s.pg, s.redis = nil, nil
}

// Postgres returns the database module, nil before Setup.
func (s *Suite) Postgres() *PostgresModule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pg
}

// Redis returns the Redis module, nil before Setup.
func (s *Suite) Redis() *RedisModule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redis
}

// Run is meant for TestMain: set up, run afterSetup hooks, run tests, shut down, exit.
func (s *Suite) Run(m *testing.M, afterSetup ...func(ctx context.Context) error) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	for _, fn := range afterSetup {
		if err := fn(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "integration setup hook failed: %v\n", err)
			s.Shutdown(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()
	s.Shutdown(ctx)
	os.Exit(code)
}

// Run delegates to Global().Run.
func Run(m *testing.M, afterSetup ...func(ctx context.Context) error) {
	Global().Run(m, afterSetup...)
}
