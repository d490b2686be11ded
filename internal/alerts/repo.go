package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db"
	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

const openAlertsIndex = "ux_shift_urgency_alerts_open"

var openAlertsColumns = []string{"shift_urgency_alerts.shift_id", "shift_urgency_alerts.alert_type"}

// GuardStats summarises a guard's recent track record.
type GuardStats struct {
	Assigned  int64
	Issues    int64
	Completed int64
}

// ListFilter narrows alert listings.
type ListFilter struct {
	ShiftID  *uuid.UUID
	Type     *enums.AlertType
	Statuses []enums.AlertStatus
	Page     pagination.Params
}

// Repository persists urgency alerts and reads the shift state the monitor needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListUpcomingShifts(ctx context.Context, from, to time.Time, statuses []enums.ShiftStatus) ([]models.Shift, error)
	ListAssignments(ctx context.Context, shiftID uuid.UUID) ([]models.ShiftAssignment, error)
	FindGuard(ctx context.Context, id uuid.UUID) (*models.Guard, error)
	GuardStats(ctx context.Context, guardID uuid.UUID, since time.Time) (GuardStats, error)

	Find(ctx context.Context, id uuid.UUID) (*models.UrgencyAlert, error)
	ListOpenForShift(ctx context.Context, shiftID uuid.UUID) ([]models.UrgencyAlert, error)
	ListOpenForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]models.UrgencyAlert, error)
	List(ctx context.Context, filter ListFilter) ([]models.UrgencyAlert, string, error)
	// Create reports false when an open alert of the same type already exists.
	Create(ctx context.Context, alert *models.UrgencyAlert) (bool, error)
	Escalate(ctx context.Context, alert *models.UrgencyAlert, at time.Time) error
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
	Acknowledge(ctx context.Context, id uuid.UUID, actor string, at time.Time) error
	Resolve(ctx context.Context, id uuid.UUID, actor string, note *string, at time.Time) (bool, error)
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the alerts repository to a DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListUpcomingShifts(ctx context.Context, from, to time.Time, statuses []enums.ShiftStatus) ([]models.Shift, error) {
	var rows []models.Shift
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("start_time >= ? AND start_time <= ?", from, to).
		Order("start_time ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAssignments(ctx context.Context, shiftID uuid.UUID) ([]models.ShiftAssignment, error) {
	var rows []models.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindGuard(ctx context.Context, id uuid.UUID) (*models.Guard, error) {
	var guard models.Guard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&guard).Error; err != nil {
		return nil, err
	}
	return &guard, nil
}

func (r *repository) GuardStats(ctx context.Context, guardID uuid.UUID, since time.Time) (GuardStats, error) {
	var stats GuardStats
	q := r.db.WithContext(ctx)

	if err := q.Model(&models.ShiftAssignment{}).
		Where("guard_id = ? AND created_at >= ?", guardID, since).
		Count(&stats.Assigned).Error; err != nil {
		return GuardStats{}, err
	}

	// Only issues logged while this guard held a live booking on the shift.
	held := q.Model(&models.ShiftAssignment{}).
		Select("1").
		Where("shift_assignments.shift_id = shift_workflow_history.shift_id").
		Where("shift_assignments.guard_id = ?", guardID).
		Where("shift_assignments.created_at <= shift_workflow_history.changed_at").
		Where("(shift_assignments.status <> ? OR shift_assignments.updated_at > shift_workflow_history.changed_at)", enums.AssignmentStatusCancelled)
	if err := q.Model(&models.WorkflowTransition{}).
		Where("EXISTS (?)", held).
		Where("new_status = ? AND previous_status IN ?", enums.ShiftStatusIssueLogged,
			[]enums.ShiftStatus{enums.ShiftStatusAssigned, enums.ShiftStatusConfirmed}).
		Where("changed_at >= ?", since).
		Count(&stats.Issues).Error; err != nil {
		return GuardStats{}, err
	}

	if err := q.Model(&models.Shift{}).
		Where("assigned_guard_id = ? AND status IN ?", guardID,
			[]enums.ShiftStatus{enums.ShiftStatusCompleted, enums.ShiftStatusArchived}).
		Count(&stats.Completed).Error; err != nil {
		return GuardStats{}, err
	}
	return stats, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.UrgencyAlert, error) {
	var alert models.UrgencyAlert
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) ListOpenForShift(ctx context.Context, shiftID uuid.UUID) ([]models.UrgencyAlert, error) {
	return r.ListOpenForShifts(ctx, []uuid.UUID{shiftID})
}

func (r *repository) ListOpenForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]models.UrgencyAlert, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	var rows []models.UrgencyAlert
	err := r.db.WithContext(ctx).
		Where("shift_id IN ? AND status <> ?", shiftIDs, enums.AlertStatusResolved).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.UrgencyAlert, string, error) {
	cursor, err := pagination.ParseCursor(filter.Page.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := r.db.WithContext(ctx).Model(&models.UrgencyAlert{})
	if filter.ShiftID != nil {
		query = query.Where("shift_id = ?", *filter.ShiftID)
	}
	if filter.Type != nil {
		query = query.Where("alert_type = ?", *filter.Type)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var rows []models.UrgencyAlert
	if err := pagination.Keyset(query, "created_at", cursor, filter.Page.Limit).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	rows, next := pagination.Trim(rows, filter.Page.Limit, func(a models.UrgencyAlert) pagination.Cursor {
		return pagination.Cursor{At: a.CreatedAt, ID: a.ID}
	})
	return rows, next.Encode(), nil
}

func (r *repository) Create(ctx context.Context, alert *models.UrgencyAlert) (bool, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		if db.IsUniqueViolation(err, openAlertsIndex, openAlertsColumns...) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) Escalate(ctx context.Context, alert *models.UrgencyAlert, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.UrgencyAlert{}).
		Where("id = ? AND status <> ?", alert.ID, enums.AlertStatusResolved).
		Updates(map[string]any{
			"escalation_level":  alert.EscalationLevel,
			"priority":          alert.Priority,
			"hours_until_shift": alert.HoursUntilShift,
			"message":           alert.Message,
			"escalated_at":      at,
			"updated_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UrgencyAlert{}).
		Where("id = ?", id).
		UpdateColumn("last_notified_at", at).Error
}

func (r *repository) Acknowledge(ctx context.Context, id uuid.UUID, actor string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.UrgencyAlert{}).
		Where("id = ? AND status = ?", id, enums.AlertStatusActive).
		Updates(map[string]any{
			"status":          enums.AlertStatusAcknowledged,
			"acknowledged_by": actor,
			"acknowledged_at": at,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Resolve(ctx context.Context, id uuid.UUID, actor string, note *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UrgencyAlert{}).
		Where("id = ? AND status <> ?", id, enums.AlertStatusResolved).
		Updates(map[string]any{
			"status":          enums.AlertStatusResolved,
			"resolved_by":     actor,
			"resolved_at":     at,
			"resolution_note": note,
			"updated_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND resolved_at < ?", enums.AlertStatusResolved, cutoff).
		Delete(&models.UrgencyAlert{})
	return res.RowsAffected, res.Error
}
