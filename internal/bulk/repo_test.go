package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

func setupBulkTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE shift_bulk_operations (
	id TEXT PRIMARY KEY,
	operation_type TEXT NOT NULL,
	shift_ids TEXT NOT NULL,
	parameters TEXT,
	reason TEXT,
	executed_by TEXT NOT NULL,
	executed_at DATETIME NOT NULL,
	status TEXT NOT NULL,
	results TEXT,
	success_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0,
	completed_at DATETIME
);`).Error)
	return db
}

func TestRepositoryCreateCompleteFind(t *testing.T) {
	db := setupBulkTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	op := &models.BulkOperation{
		OperationType: enums.BulkActionPriorityUpdate,
		ShiftIDs:      ids,
		Parameters:    json.RawMessage(`{"priority":2}`),
		ExecutedBy:    "mgr-1",
		ExecutedAt:    testNow,
		Status:        enums.BulkOperationExecuting,
		Results:       json.RawMessage("[]"),
	}
	require.NoError(t, repo.Create(ctx, op))
	require.NotEqual(t, uuid.Nil, op.ID)

	results := []ItemResult{{ShiftID: ids[0], Success: true}, {ShiftID: ids[1], Error: &ItemError{Code: "SHIFT_NOT_FOUND", Message: "shift not found"}}}
	finish(op, results, testNow)
	require.NoError(t, repo.Complete(ctx, op))

	stored, err := repo.Find(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BulkOperationFailed, stored.Status)
	assert.Equal(t, 1, stored.SuccessCount)
	assert.Equal(t, 1, stored.FailureCount)
	assert.Equal(t, ids, []uuid.UUID(stored.ShiftIDs))
	require.NotNil(t, stored.CompletedAt)

	dto := FromModel(stored)
	require.Len(t, dto.Results, 2)
	assert.Equal(t, "SHIFT_NOT_FOUND", dto.Results[1].Error.Code)

	missing := &models.BulkOperation{ID: uuid.New()}
	assert.ErrorIs(t, repo.Complete(ctx, missing), gorm.ErrRecordNotFound)
}
