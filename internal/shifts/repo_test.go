package shifts

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

func setupShiftsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	shifts := `
CREATE TABLE shifts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  start_time DATETIME NOT NULL,
  end_time DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'unassigned',
  assigned_guard_id TEXT,
  priority INTEGER NOT NULL DEFAULT 0,
  required_certifications TEXT NOT NULL DEFAULT '{}',
  required_guards INTEGER NOT NULL DEFAULT 1,
  client_info TEXT,
  location_data TEXT,
  client_id TEXT,
  site_id TEXT,
  manager_id TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  archived_at DATETIME
);`
	alerts := `
CREATE TABLE shift_urgency_alerts (
  id TEXT PRIMARY KEY,
  shift_id TEXT NOT NULL,
  alert_type TEXT NOT NULL,
  priority TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  message TEXT NOT NULL,
  hours_until_shift REAL NOT NULL,
  escalation_level INTEGER NOT NULL DEFAULT 1,
  escalated_at DATETIME,
  last_notified_at DATETIME,
  acknowledged_by TEXT,
  acknowledged_at DATETIME,
  resolved_by TEXT,
  resolved_at DATETIME,
  resolution_note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(shifts).Error)
	require.NoError(t, db.Exec(alerts).Error)
	return db
}

func TestListForBoardAppliesFilters(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	managerA := "mgr-a"
	managerB := "mgr-b"
	client := uuid.New()
	guard := uuid.New()

	early := &models.Shift{Title: "Early", StartTime: base, EndTime: base.Add(4 * time.Hour), Status: enums.ShiftStatusUnassigned, ManagerID: &managerA, ClientID: &client, Priority: 2}
	late := &models.Shift{Title: "Late", StartTime: base.Add(24 * time.Hour), EndTime: base.Add(28 * time.Hour), Status: enums.ShiftStatusAssigned, ManagerID: &managerA, AssignedGuardID: &guard}
	other := &models.Shift{Title: "Other", StartTime: base.Add(2 * time.Hour), EndTime: base.Add(6 * time.Hour), Status: enums.ShiftStatusConfirmed, ManagerID: &managerB, AssignedGuardID: &guard}
	for _, s := range []*models.Shift{late, early, other} {
		require.NoError(t, repo.Create(ctx, s))
	}

	all, err := repo.ListForBoard(ctx, BoardFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Early", all[0].Title)
	assert.Equal(t, "Late", all[2].Title)

	mine, err := repo.ListForBoard(ctx, BoardFilters{ManagerID: &managerA})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	to := base.Add(12 * time.Hour)
	window, err := repo.ListForBoard(ctx, BoardFilters{From: &base, To: &to})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	byClient, err := repo.ListForBoard(ctx, BoardFilters{ClientID: &client})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, early.ID, byClient[0].ID)

	byGuard, err := repo.ListForBoard(ctx, BoardFilters{GuardID: &guard})
	require.NoError(t, err)
	assert.Len(t, byGuard, 2)

	byStatus, err := repo.ListForBoard(ctx, BoardFilters{Statuses: []enums.ShiftStatus{enums.ShiftStatusAssigned, enums.ShiftStatusConfirmed}})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	priority := 2
	byPriority, err := repo.ListForBoard(ctx, BoardFilters{Priority: &priority})
	require.NoError(t, err)
	assert.Len(t, byPriority, 1)

	unassigned := false
	open, err := repo.ListForBoard(ctx, BoardFilters{Assigned: &unassigned})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, early.ID, open[0].ID)

	limited, err := repo.ListForBoard(ctx, BoardFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListForBoardUrgentOnly(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	urgent := &models.Shift{Title: "Urgent", StartTime: start, EndTime: start.Add(time.Hour), Status: enums.ShiftStatusUnassigned}
	calm := &models.Shift{Title: "Calm", StartTime: start, EndTime: start.Add(time.Hour), Status: enums.ShiftStatusUnassigned}
	settled := &models.Shift{Title: "Settled", StartTime: start, EndTime: start.Add(time.Hour), Status: enums.ShiftStatusAssigned}
	for _, s := range []*models.Shift{urgent, calm, settled} {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, db.Create(&models.UrgencyAlert{ID: uuid.New(), ShiftID: urgent.ID, AlertType: enums.AlertTypeUnassigned24h, Priority: enums.AlertPriorityCritical, Status: enums.AlertStatusActive, Message: "m", HoursUntilShift: 3}).Error)
	require.NoError(t, db.Create(&models.UrgencyAlert{ID: uuid.New(), ShiftID: settled.ID, AlertType: enums.AlertTypeUnassigned24h, Priority: enums.AlertPriorityHigh, Status: enums.AlertStatusResolved, Message: "m", HoursUntilShift: 10}).Error)
	require.NoError(t, db.Create(&models.UrgencyAlert{ID: uuid.New(), ShiftID: calm.ID, AlertType: enums.AlertTypeUnderstaffed, Priority: enums.AlertPriorityMedium, Status: enums.AlertStatusAcknowledged, Message: "m", HoursUntilShift: 3}).Error)

	rows, err := repo.ListForBoard(ctx, BoardFilters{UrgentOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, urgent.ID, rows[0].ID)
}

func TestUpdatePriorityBumpsVersion(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	shift := &models.Shift{Title: "Gate", StartTime: start, EndTime: start.Add(time.Hour), Status: enums.ShiftStatusUnassigned}
	require.NoError(t, repo.Create(ctx, shift))

	require.NoError(t, repo.UpdatePriority(ctx, shift.ID, 4, start))

	stored, err := repo.FindByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Priority)
	assert.Equal(t, 1, stored.Version)

	err = repo.UpdatePriority(ctx, uuid.New(), 1, start)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
