package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// NotificationDTO is the API view of an inbox entry.
type NotificationDTO struct {
	ID          uuid.UUID              `json:"id"`
	RecipientID string                 `json:"recipientId"`
	Type        enums.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	ShiftID     *uuid.UUID             `json:"shiftId,omitempty"`
	AlertID     *uuid.UUID             `json:"alertId,omitempty"`
	Link        *string                `json:"link,omitempty"`
	ReadAt      *time.Time             `json:"readAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func FromModel(m models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Type:        m.Type,
		Title:       m.Title,
		Message:     m.Message,
		ShiftID:     m.ShiftID,
		AlertID:     m.AlertID,
		Link:        m.Link,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}
