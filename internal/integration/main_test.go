//go:build integration

package integration

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"currencyrates/internal/repository"
	"currencyrates/internal/testkit"
)

func TestMain(m *testing.M) {
	testkit.Run(m, func(ctx context.Context) error {
		var err error
		testDB, err = testkit.Global().Postgres().Open(ctx)
		if err != nil {
			return err
		}
		if err := repository.RunMigrations(testDB, zap.NewNop().Sugar()); err != nil {
			return err
		}

		testRDB, err = testkit.Global().Redis().Client(ctx)
		return err
	})
}
