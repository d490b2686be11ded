package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/pagination"
)

// Repository persists inbox notifications. Every query is scoped to a
// single recipient except the retention purge.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, notificationID uuid.UUID, now time.Time) (markOutcome, error)
	MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type listNotificationsParams struct {
	RecipientID string
	Limit       int
	Cursor      *pagination.Cursor
	UnreadOnly  bool
}

type markOutcome int

const (
	markMissing markOutcome = iota
	markAlreadyRead
	markUpdated
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) inbox(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	query := r.inbox(ctx, params.RecipientID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.Notification
	if err := pagination.Keyset(query, "created_at", params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{At: n.CreatedAt, ID: n.ID}
	})
	return rows, next, nil
}

func (r *repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.inbox(ctx, recipientID).Where("read_at IS NULL").Count(&n).Error
	return n, err
}

// MarkRead stamps one notification. Reading an already read notification is
// not an error, reading someone else's reports markMissing.
func (r *repository) MarkRead(ctx context.Context, recipientID string, notificationID uuid.UUID, now time.Time) (markOutcome, error) {
	var row models.Notification
	err := r.inbox(ctx, recipientID).Select("id", "read_at").Where("id = ?", notificationID).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return markMissing, nil
	case err != nil:
		return markMissing, err
	case row.ReadAt != nil:
		return markAlreadyRead, nil
	}
	res := r.inbox(ctx, recipientID).
		Where("id = ? AND read_at IS NULL", notificationID).
		UpdateColumn("read_at", now)
	if res.Error != nil {
		return markMissing, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with another reader.
		return markAlreadyRead, nil
	}
	return markUpdated, nil
}

func (r *repository) MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error) {
	res := r.inbox(ctx, recipientID).Where("read_at IS NULL").UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
