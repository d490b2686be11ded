package shifts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Repository persists shift rows outside of status transitions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shift *models.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shift, error)
	ListForBoard(ctx context.Context, filters BoardFilters) ([]models.Shift, error)
	UpdatePriority(ctx context.Context, id uuid.UUID, priority int, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shift repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shift, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Shift
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) ListForBoard(ctx context.Context, filters BoardFilters) ([]models.Shift, error) {
	query := r.db.WithContext(ctx).Model(&models.Shift{})

	if filters.ManagerID != nil {
		query = query.Where("manager_id = ?", *filters.ManagerID)
	}
	if filters.From != nil {
		query = query.Where("start_time >= ?", filters.From.UTC())
	}
	if filters.To != nil {
		query = query.Where("start_time <= ?", filters.To.UTC())
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.SiteID != nil {
		query = query.Where("site_id = ?", *filters.SiteID)
	}
	if filters.GuardID != nil {
		query = query.Where("assigned_guard_id = ?", *filters.GuardID)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.Assigned != nil {
		if *filters.Assigned {
			query = query.Where("assigned_guard_id IS NOT NULL")
		} else {
			query = query.Where("assigned_guard_id IS NULL")
		}
	}
	if filters.UrgentOnly {
		urgent := r.db.Model(&models.UrgencyAlert{}).
			Select("shift_id").
			Where("status = ?", enums.AlertStatusActive)
		query = query.Where("id IN (?)", urgent)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var rows []models.Shift
	if err := query.Order("start_time ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdatePriority(ctx context.Context, id uuid.UUID, priority int, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"priority":   priority,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
