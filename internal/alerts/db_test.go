package alerts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/outbox"
)

func setupAlertsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE guards (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  certifications TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
);`, `
CREATE TABLE shift_assignments (
  id TEXT PRIMARY KEY,
  shift_id TEXT NOT NULL,
  guard_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  assigned_by TEXT,
  confirmed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE shift_workflow_history (
  id TEXT PRIMARY KEY,
  shift_id TEXT NOT NULL,
  previous_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  changed_at DATETIME NOT NULL,
  transition_reason TEXT,
  transition_method TEXT NOT NULL,
  bulk_operation_id TEXT
);`, `
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
);`, `
CREATE UNIQUE INDEX ux_shift_urgency_alerts_open
  ON shift_urgency_alerts (shift_id, alert_type)
  WHERE status <> 'resolved';`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) types() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func insertShift(t *testing.T, db *gorm.DB, status enums.ShiftStatus, startsIn time.Duration, mutate ...func(*models.Shift)) models.Shift {
	t.Helper()
	start := testNow.Add(startsIn)
	shift := models.Shift{
		ID:             uuid.New(),
		Title:          "Lobby watch",
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		Status:         status,
		RequiredGuards: 1,
	}
	for _, fn := range mutate {
		fn(&shift)
	}
	require.NoError(t, db.Create(&shift).Error)
	return shift
}

func insertGuard(t *testing.T, db *gorm.DB, certs ...string) models.Guard {
	t.Helper()
	guard := models.Guard{ID: uuid.New(), FullName: "Alex Kim", IsActive: true, Certifications: pq.StringArray(certs)}
	if len(certs) == 0 {
		guard.Certifications = pq.StringArray{}
	}
	require.NoError(t, db.Create(&guard).Error)
	return guard
}

func insertAssignment(t *testing.T, db *gorm.DB, shiftID, guardID uuid.UUID, status enums.AssignmentStatus, mutate ...func(*models.ShiftAssignment)) models.ShiftAssignment {
	t.Helper()
	a := models.ShiftAssignment{ID: uuid.New(), ShiftID: shiftID, GuardID: guardID, Status: status}
	for _, fn := range mutate {
		fn(&a)
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func openAlerts(t *testing.T, db *gorm.DB, shiftID uuid.UUID) []models.UrgencyAlert {
	t.Helper()
	rows, err := NewRepository(db).ListOpenForShift(context.Background(), shiftID)
	require.NoError(t, err)
	return rows
}

func withGuard(id uuid.UUID) func(*models.Shift) {
	return func(s *models.Shift) { s.AssignedGuardID = &id }
}

func bookedBetween(from, to time.Time) func(*models.ShiftAssignment) {
	return func(a *models.ShiftAssignment) {
		a.CreatedAt = from.UTC()
		a.UpdatedAt = to.UTC()
	}
}
