package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// Notification is an in-app inbox entry addressed to a single actor.
type Notification struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID string                 `gorm:"type:text;not null"`
	Type        enums.NotificationType `gorm:"type:notification_type;not null"`
	Title       string                 `gorm:"type:text;not null"`
	Message     string                 `gorm:"type:text;not null"`
	ShiftID     *uuid.UUID             `gorm:"type:uuid"`
	AlertID     *uuid.UUID             `gorm:"type:uuid"`
	Link        *string                `gorm:"type:text"`
	ReadAt      *time.Time             `gorm:"type:timestamptz"`
	CreatedAt   time.Time              `gorm:"type:timestamptz;default:now()"`
}
