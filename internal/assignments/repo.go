package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Repository persists guard bookings onto shifts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindShift(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	FindGuard(ctx context.Context, id uuid.UUID) (*models.Guard, error)
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.ShiftAssignment, error)
	FindActive(ctx context.Context, shiftID, guardID uuid.UUID) (*models.ShiftAssignment, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]models.ShiftAssignment, error)
	Create(ctx context.Context, assignment *models.ShiftAssignment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssignmentStatus, confirmedAt *time.Time) error
	SetShiftGuard(ctx context.Context, shiftID uuid.UUID, guardID *uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
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

func (r *repository) FindGuard(ctx context.Context, id uuid.UUID) (*models.Guard, error) {
	var guard models.Guard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&guard).Error; err != nil {
		return nil, err
	}
	return &guard, nil
}

func (r *repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindActive(ctx context.Context, shiftID, guardID uuid.UUID) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND guard_id = ? AND status IN ?", shiftID, guardID, activeStatuses()).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]models.ShiftAssignment, error) {
	var rows []models.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Create(ctx context.Context, assignment *models.ShiftAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssignmentStatus, confirmedAt *time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if confirmedAt != nil {
		updates["confirmed_at"] = *confirmedAt
	}
	res := r.db.WithContext(ctx).Model(&models.ShiftAssignment{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetShiftGuard(ctx context.Context, shiftID uuid.UUID, guardID *uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ?", shiftID).
		Updates(map[string]any{
			"assigned_guard_id": guardID,
			"version":           gorm.Expr("version + 1"),
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

func activeStatuses() []enums.AssignmentStatus {
	return []enums.AssignmentStatus{enums.AssignmentStatusPending, enums.AssignmentStatusConfirmed}
}
