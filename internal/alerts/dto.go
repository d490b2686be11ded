package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// AlertDTO is the API view of an urgency alert.
type AlertDTO struct {
	ID              uuid.UUID           `json:"id"`
	ShiftID         uuid.UUID           `json:"shiftId"`
	AlertType       enums.AlertType     `json:"alertType"`
	Priority        enums.AlertPriority `json:"priority"`
	Status          enums.AlertStatus   `json:"status"`
	Message         string              `json:"message"`
	HoursUntilShift float64             `json:"hoursUntilShift"`
	EscalationLevel int                 `json:"escalationLevel"`
	EscalatedAt     *time.Time          `json:"escalatedAt,omitempty"`
	AcknowledgedBy  *string             `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt  *time.Time          `json:"acknowledgedAt,omitempty"`
	ResolvedBy      *string             `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time          `json:"resolvedAt,omitempty"`
	ResolutionNote  *string             `json:"resolutionNote,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// FromModel maps a persisted alert to its DTO.
func FromModel(m models.UrgencyAlert) AlertDTO {
	return AlertDTO{
		ID:              m.ID,
		ShiftID:         m.ShiftID,
		AlertType:       m.AlertType,
		Priority:        m.Priority,
		Status:          m.Status,
		Message:         m.Message,
		HoursUntilShift: m.HoursUntilShift,
		EscalationLevel: m.EscalationLevel,
		EscalatedAt:     m.EscalatedAt,
		AcknowledgedBy:  m.AcknowledgedBy,
		AcknowledgedAt:  m.AcknowledgedAt,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
		ResolutionNote:  m.ResolutionNote,
		CreatedAt:       m.CreatedAt,
	}
}

// FromModels maps a slice of alerts, never returning nil.
func FromModels(rows []models.UrgencyAlert) []AlertDTO {
	out := make([]AlertDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
