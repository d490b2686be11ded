package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

func TestDefaultConfigCoversEveryStatus(t *testing.T) {
	cfg := DefaultConfig()

	columns := cfg.Columns()
	require.Len(t, columns, len(enums.ShiftStatuses()))
	for i, status := range enums.ShiftStatuses() {
		assert.Equal(t, status, columns[i].Status)
	}
}

func TestDefaultConfigArchivedIsTerminal(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IsTerminal(enums.ShiftStatusArchived))
	for _, to := range enums.ShiftStatuses() {
		assert.False(t, cfg.Allowed(enums.ShiftStatusArchived, to), "archived -> %s", to)
	}
}

func TestDefaultConfigHasNoSelfLoops(t *testing.T) {
	cfg := DefaultConfig()
	for _, status := range enums.ShiftStatuses() {
		assert.False(t, cfg.Allowed(status, status), "self loop on %s", status)
	}
}

func TestConfigColumnReturnsCopy(t *testing.T) {
	cfg := DefaultConfig()

	col, ok := cfg.Column(enums.ShiftStatusUnassigned)
	require.True(t, ok)
	require.NotEmpty(t, col.AllowedTransitions)
	col.AllowedTransitions[0] = enums.ShiftStatusCompleted

	assert.False(t, cfg.Allowed(enums.ShiftStatusUnassigned, enums.ShiftStatusCompleted))
	assert.True(t, cfg.Allowed(enums.ShiftStatusUnassigned, enums.ShiftStatusAssigned))
}

func TestNewConfigRejectsBrokenTables(t *testing.T) {
	base := DefaultConfig().Columns()

	t.Run("missing column", func(t *testing.T) {
		_, err := NewConfig(base[:len(base)-1])
		require.Error(t, err)
	})

	t.Run("self loop", func(t *testing.T) {
		cols := DefaultConfig().Columns()
		cols[0].AllowedTransitions = append(cols[0].AllowedTransitions, cols[0].Status)
		_, err := NewConfig(cols)
		require.Error(t, err)
	})

	t.Run("archived not terminal", func(t *testing.T) {
		cols := DefaultConfig().Columns()
		for i := range cols {
			if cols[i].Status == enums.ShiftStatusArchived {
				cols[i].AllowedTransitions = []enums.ShiftStatus{enums.ShiftStatusUnassigned}
			}
		}
		_, err := NewConfig(cols)
		require.Error(t, err)
	})

	t.Run("unknown destination", func(t *testing.T) {
		cols := DefaultConfig().Columns()
		cols[0].AllowedTransitions = []enums.ShiftStatus{"paused"}
		_, err := NewConfig(cols)
		require.Error(t, err)
	})
}

func TestRequiresValidation(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.RequiresValidation(enums.ShiftStatusUnassigned))
	assert.True(t, cfg.RequiresValidation(enums.ShiftStatusConfirmed))
	assert.False(t, cfg.RequiresValidation(enums.ShiftStatusCompleted))
	assert.False(t, cfg.RequiresValidation(enums.ShiftStatusArchived))
}
