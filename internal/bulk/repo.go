package bulk

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
)

// Repository persists bulk operation records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, op *models.BulkOperation) error
	Complete(ctx context.Context, op *models.BulkOperation) error
	Find(ctx context.Context, id uuid.UUID) (*models.BulkOperation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bulk operation repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, op *models.BulkOperation) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *repository) Complete(ctx context.Context, op *models.BulkOperation) error {
	res := r.db.WithContext(ctx).
		Model(&models.BulkOperation{}).
		Where("id = ?", op.ID).
		Updates(map[string]any{
			"status":        op.Status,
			"results":       op.Results,
			"success_count": op.SuccessCount,
			"failure_count": op.FailureCount,
			"completed_at":  op.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.BulkOperation, error) {
	var op models.BulkOperation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}
