package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Run("import-date defaults", func(t *testing.T) {
		cmd, err := parseCommand([]string{"import-date"})
		require.NoError(t, err)
		assert.Equal(t, command{name: "import-date", date: "today", table: "A"}, cmd)
	})

	t.Run("import-date with flags", func(t *testing.T) {
		cmd, err := parseCommand([]string{"import-date", "--date=2025-11-03", "--table", "B"})
		require.NoError(t, err)
		assert.Equal(t, "2025-11-03", cmd.date)
		assert.Equal(t, "B", cmd.table)
	})

	t.Run("import-range", func(t *testing.T) {
		cmd, err := parseCommand([]string{"import-range", "--from=2025-10-01", "--to=2025-10-31"})
		require.NoError(t, err)
		assert.Equal(t, command{name: "import-range", from: "2025-10-01", to: "2025-10-31", table: "A"}, cmd)
	})

	t.Run("teardown confirmed", func(t *testing.T) {
		cmd, err := parseCommand([]string{"teardown", "--yes"})
		require.NoError(t, err)
		assert.True(t, cmd.yes)
	})

	for name, args := range map[string][]string{
		"no command":           nil,
		"unknown command":      {"prune"},
		"range without to":     {"import-range", "--from=2025-10-01"},
		"teardown unconfirmed": {"teardown"},
		"unknown flag":         {"import-date", "--when=today"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseCommand(args)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}
