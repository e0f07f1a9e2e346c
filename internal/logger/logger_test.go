package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"currencyrates/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		enabled   []zapcore.Level
		suppressed []zapcore.Level
	}{
		{
			name:      "disabled logs nothing",
			cfg:       config.LogConfig{Enabled: false, Level: "debug"},
			suppressed: []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel},
		},
		{
			name:      "configured level",
			cfg:       config.LogConfig{Enabled: true, Level: "warn"},
			enabled:   []zapcore.Level{zapcore.WarnLevel, zapcore.ErrorLevel},
			suppressed: []zapcore.Level{zapcore.InfoLevel},
		},
		{
			name:      "unknown level falls back to info",
			cfg:       config.LogConfig{Enabled: true, Level: "loud"},
			enabled:   []zapcore.Level{zapcore.InfoLevel},
			suppressed: []zapcore.Level{zapcore.DebugLevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			for _, lvl := range tt.enabled {
				assert.True(t, l.Core().Enabled(lvl), lvl.String())
			}
			for _, lvl := range tt.suppressed {
				assert.False(t, l.Core().Enabled(lvl), lvl.String())
			}
		})
	}
}
