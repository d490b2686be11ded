package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// UrgencyAlert is a time-threshold signal raised against one shift.
type UrgencyAlert struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShiftID         uuid.UUID           `gorm:"column:shift_id;type:uuid;not null"`
	AlertType       enums.AlertType     `gorm:"column:alert_type;type:alert_type;not null"`
	Priority        enums.AlertPriority `gorm:"column:priority;type:alert_priority;not null"`
	Status          enums.AlertStatus   `gorm:"column:status;type:alert_status;not null;default:'active'"`
	Message         string              `gorm:"column:message;not null"`
	HoursUntilShift float64             `gorm:"column:hours_until_shift;not null"`
	EscalationLevel int                 `gorm:"column:escalation_level;not null;default:1"`
	EscalatedAt     *time.Time          `gorm:"column:escalated_at"`
	LastNotifiedAt  *time.Time          `gorm:"column:last_notified_at"`
	AcknowledgedBy  *string             `gorm:"column:acknowledged_by"`
	AcknowledgedAt  *time.Time          `gorm:"column:acknowledged_at"`
	ResolvedBy      *string             `gorm:"column:resolved_by"`
	ResolvedAt      *time.Time          `gorm:"column:resolved_at"`
	ResolutionNote  *string             `gorm:"column:resolution_note"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (UrgencyAlert) TableName() string { return "shift_urgency_alerts" }
