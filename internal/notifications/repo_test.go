package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

func setupInboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  shift_id TEXT,
  alert_id TEXT,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`).Error)
	return db
}

func seedInbox(t *testing.T, repo Repository, recipient string, base time.Time, n int) []models.Notification {
	t.Helper()
	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		row := models.Notification{
			RecipientID: recipient,
			Type:        enums.NotificationTypeShiftUpdate,
			Title:       fmt.Sprintf("update %d", i),
			Message:     "shift moved",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), &row))
		out = append(out, row)
	}
	return out
}

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	repo := NewRepository(setupInboxDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := seedInbox(t, repo, "mgr-1", base, 3)
	seedInbox(t, repo, "mgr-2", base, 1)

	page, next, err := repo.List(ctx, listNotificationsParams{RecipientID: "mgr-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, rows[2].ID, page[0].ID)
	assert.Equal(t, rows[1].ID, page[1].ID)
	require.NotNil(t, next)

	page, next, err = repo.List(ctx, listNotificationsParams{RecipientID: "mgr-1", Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, rows[0].ID, page[0].ID)
	assert.Nil(t, next)
}

func TestRepositoryMarkRead(t *testing.T) {
	repo := NewRepository(setupInboxDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := seedInbox(t, repo, "mgr-1", now.Add(-time.Hour), 2)

	outcome, err := repo.MarkRead(ctx, "mgr-1", rows[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, markUpdated, outcome)

	outcome, err = repo.MarkRead(ctx, "mgr-1", rows[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, markAlreadyRead, outcome)

	outcome, err = repo.MarkRead(ctx, "mgr-2", rows[1].ID, now)
	require.NoError(t, err)
	assert.Equal(t, markMissing, outcome, "other recipients cannot read it")

	unread, err := repo.CountUnread(ctx, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	marked, err := repo.MarkAllRead(ctx, "mgr-1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	deleted, err := repo.DeleteReadBefore(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
