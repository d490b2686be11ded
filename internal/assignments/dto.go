package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/db/models"
	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// AssignmentDTO is the API view of a guard booking.
type AssignmentDTO struct {
	ID          uuid.UUID              `json:"id"`
	ShiftID     uuid.UUID              `json:"shiftId"`
	GuardID     uuid.UUID              `json:"guardId"`
	Status      enums.AssignmentStatus `json:"status"`
	AssignedBy  *string                `json:"assignedBy,omitempty"`
	ConfirmedAt *time.Time             `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// AssignInput books a guard onto a shift.
type AssignInput struct {
	ShiftID    uuid.UUID
	GuardID    uuid.UUID
	AssignedBy string
	// Replace cancels the other active bookings and makes this guard primary.
	Replace bool
}

// FromModel maps a persisted assignment into a DTO.
func FromModel(m *models.ShiftAssignment) *AssignmentDTO {
	if m == nil {
		return nil
	}
	return &AssignmentDTO{
		ID:          m.ID,
		ShiftID:     m.ShiftID,
		GuardID:     m.GuardID,
		Status:      m.Status,
		AssignedBy:  m.AssignedBy,
		ConfirmedAt: m.ConfirmedAt,
		CreatedAt:   m.CreatedAt,
	}
}
