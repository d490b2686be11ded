package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

type recordingResolveMetrics struct {
	paths []string
}

func (r *recordingResolveMetrics) IncAlertResolved(alertType, path string) {
	r.paths = append(r.paths, alertType+"/"+path)
}

func seedAlert(t *testing.T, db *gorm.DB, shiftID uuid.UUID, alertType enums.AlertType) models.UrgencyAlert {
	t.Helper()
	alert := models.UrgencyAlert{
		ID:              uuid.New(),
		ShiftID:         shiftID,
		AlertType:       alertType,
		Priority:        enums.AlertPriorityHigh,
		Status:          enums.AlertStatusActive,
		Message:         string(alertType),
		HoursUntilShift: 5,
		EscalationLevel: 1,
	}
	require.NoError(t, db.Create(&alert).Error)
	return alert
}

func newTestResolver(t *testing.T, db *gorm.DB, emitter *recordingEmitter, metrics *recordingResolveMetrics) *Resolver {
	t.Helper()
	resolver, err := NewResolver(NewRepository(db), sqliteTxRunner{db: db}, emitter, metrics, nil)
	require.NoError(t, err)
	resolver.now = func() time.Time { return testNow }
	return resolver
}

func TestResolvableTypesMap(t *testing.T) {
	assert.ElementsMatch(t, []enums.AlertType{enums.AlertTypeUnassigned24h, enums.AlertTypeUnderstaffed}, ResolvableTypes(enums.ShiftStatusAssigned))
	assert.Contains(t, ResolvableTypes(enums.ShiftStatusConfirmed), enums.AlertTypeUnconfirmed12h)
	assert.Contains(t, ResolvableTypes(enums.ShiftStatusInProgress), enums.AlertTypeNoShowRisk)
	assert.Empty(t, ResolvableTypes(enums.ShiftStatusIssueLogged))
	assert.Empty(t, ResolvableTypes(enums.ShiftStatusUnassigned))
	for _, status := range enums.ShiftStatuses() {
		assert.NotContains(t, ResolvableTypes(status), enums.AlertTypeCertificationGap, "status %s", status)
	}
}

func TestAutoResolveOnAssigned(t *testing.T) {
	db := setupAlertsTestDB(t)
	emitter := &recordingEmitter{}
	metrics := &recordingResolveMetrics{}
	resolver := newTestResolver(t, db, emitter, metrics)

	shift := insertShift(t, db, enums.ShiftStatusAssigned, 5*time.Hour)
	unassigned := seedAlert(t, db, shift.ID, enums.AlertTypeUnassigned24h)
	gap := seedAlert(t, db, shift.ID, enums.AlertTypeCertificationGap)

	resolved, err := resolver.AutoResolve(context.Background(), shift.ID, enums.ShiftStatusAssigned, "mgr-1")
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, unassigned.ID, resolved[0].ID)

	open := openAlerts(t, db, shift.ID)
	require.Len(t, open, 1)
	assert.Equal(t, gap.ID, open[0].ID)

	var stored models.UrgencyAlert
	require.NoError(t, db.Where("id = ?", unassigned.ID).First(&stored).Error)
	assert.Equal(t, enums.AlertStatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedBy)
	assert.Equal(t, "mgr-1", *stored.ResolvedBy)

	assert.Equal(t, []enums.OutboxEventType{enums.EventUrgencyAlertResolved}, emitter.types())
	assert.Equal(t, []string{"unassigned_24h/automatic"}, metrics.paths)
}

func TestResolverHookReportsFailures(t *testing.T) {
	db := setupAlertsTestDB(t)
	emitter := &recordingEmitter{err: errors.New("outbox down")}
	resolver := newTestResolver(t, db, emitter, nil)

	shift := insertShift(t, db, enums.ShiftStatusCompleted, -time.Hour)
	seedAlert(t, db, shift.ID, enums.AlertTypeNoShowRisk)

	warnings, err := resolver.Hook().AfterTransition(context.Background(), shift, models.WorkflowTransition{
		ShiftID:   shift.ID,
		NewStatus: enums.ShiftStatusCompleted,
		ChangedBy: "mgr-1",
	})
	assert.Empty(t, warnings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox down")
	assert.Len(t, openAlerts(t, db, shift.ID), 1)
}

func TestAutoResolveNoopForIssueLogged(t *testing.T) {
	db := setupAlertsTestDB(t)
	emitter := &recordingEmitter{}
	resolver := newTestResolver(t, db, emitter, nil)

	shift := insertShift(t, db, enums.ShiftStatusIssueLogged, 5*time.Hour)
	seedAlert(t, db, shift.ID, enums.AlertTypeUnassigned24h)

	resolved, err := resolver.AutoResolve(context.Background(), shift.ID, enums.ShiftStatusIssueLogged, "mgr-1")
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Len(t, openAlerts(t, db, shift.ID), 1)
	assert.Empty(t, emitter.events)
}
