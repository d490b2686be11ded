package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
)

// WorkflowTransition is an append-only audit record of a shift status change.
type WorkflowTransition struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShiftID          uuid.UUID              `gorm:"column:shift_id;type:uuid;not null"`
	PreviousStatus   enums.ShiftStatus      `gorm:"column:previous_status;type:shift_status;not null"`
	NewStatus        enums.ShiftStatus      `gorm:"column:new_status;type:shift_status;not null"`
	ChangedBy        string                 `gorm:"column:changed_by;not null"`
	ChangedAt        time.Time              `gorm:"column:changed_at;not null"`
	TransitionReason *string                `gorm:"column:transition_reason"`
	TransitionMethod enums.TransitionMethod `gorm:"column:transition_method;type:transition_method;not null"`
	BulkOperationID  *uuid.UUID             `gorm:"column:bulk_operation_id;type:uuid"`
}

func (WorkflowTransition) TableName() string { return "shift_workflow_history" }
