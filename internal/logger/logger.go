// Package logger builds the zap logger shared by the service and ratesctl.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"currencyrates/internal/config"
)

// New builds the production logger. A disabled log yields a no-op logger
// and an unknown level falls back to info.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	if !cfg.Enabled {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
