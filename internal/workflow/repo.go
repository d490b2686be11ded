package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

// Repository covers the reads and writes a status transition needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindShift(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	CountActiveAssignments(ctx context.Context, shiftID uuid.UUID) (int64, error)
	CompareAndSwapStatus(ctx context.Context, shift *models.Shift, to enums.ShiftStatus, at time.Time) (bool, error)
	InsertTransition(ctx context.Context, transition *models.WorkflowTransition) error
	ListTransitions(ctx context.Context, shiftID uuid.UUID, params pagination.Params) ([]models.WorkflowTransition, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a workflow repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindShift(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *repository) CountActiveAssignments(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ShiftAssignment{}).
		Where("shift_id = ? AND status IN ?", shiftID, []enums.AssignmentStatus{
			enums.AssignmentStatusPending,
			enums.AssignmentStatusConfirmed,
		}).
		Count(&count).Error
	return count, err
}

// CompareAndSwapStatus moves the shift only if its status and version are
// still the ones that were read. It reports false when another writer won.
func (r *repository) CompareAndSwapStatus(ctx context.Context, shift *models.Shift, to enums.ShiftStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": at,
	}
	if to == enums.ShiftStatusArchived {
		updates["archived_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ? AND status = ? AND version = ?", shift.ID, shift.Status, shift.Version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertTransition(ctx context.Context, transition *models.WorkflowTransition) error {
	if transition.ID == uuid.Nil {
		transition.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(transition).Error
}

func (r *repository) ListTransitions(ctx context.Context, shiftID uuid.UUID, params pagination.Params) ([]models.WorkflowTransition, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := r.db.WithContext(ctx).
		Model(&models.WorkflowTransition{}).
		Where("shift_id = ?", shiftID)

	var rows []models.WorkflowTransition
	if err := pagination.Keyset(query, "changed_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	rows, next := pagination.Trim(rows, params.Limit, func(t models.WorkflowTransition) pagination.Cursor {
		return pagination.Cursor{At: t.ChangedAt, ID: t.ID}
	})
	return rows, next.Encode(), nil
}
