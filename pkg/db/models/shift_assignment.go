package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// ShiftAssignment records a guard being booked onto a shift.
type ShiftAssignment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShiftID     uuid.UUID              `gorm:"column:shift_id;type:uuid;not null"`
	GuardID     uuid.UUID              `gorm:"column:guard_id;type:uuid;not null"`
	Status      enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'pending'"`
	AssignedBy  *string                `gorm:"column:assigned_by"`
	ConfirmedAt *time.Time             `gorm:"column:confirmed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
