package payloads

import (
	"time"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	"github.com/google/uuid"
)

// ShiftCreatedEvent announces a new shift on the board.
type ShiftCreatedEvent struct {
	ShiftID   uuid.UUID         `json:"shift_id"`
	Title     string            `json:"title"`
	Status    enums.ShiftStatus `json:"status"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	ManagerID *string           `json:"manager_id,omitempty"`
	CloneOf   *uuid.UUID        `json:"clone_of,omitempty"`
}

// ShiftStatusChangedEvent mirrors one workflow history row.
type ShiftStatusChangedEvent struct {
	ShiftID          uuid.UUID              `json:"shift_id"`
	TransitionID     uuid.UUID              `json:"transition_id"`
	PreviousStatus   enums.ShiftStatus      `json:"previous_status"`
	NewStatus        enums.ShiftStatus      `json:"new_status"`
	ChangedBy        string                 `json:"changed_by"`
	ChangedAt        time.Time              `json:"changed_at"`
	TransitionMethod enums.TransitionMethod `json:"transition_method"`
	BulkOperationID  *uuid.UUID             `json:"bulk_operation_id,omitempty"`
	Reason           *string                `json:"reason,omitempty"`
}

// UrgencyAlertEvent is emitted when an alert is raised, escalated or resolved.
type UrgencyAlertEvent struct {
	AlertID         uuid.UUID           `json:"alert_id"`
	ShiftID         uuid.UUID           `json:"shift_id"`
	AlertType       enums.AlertType     `json:"alert_type"`
	Priority        enums.AlertPriority `json:"priority"`
	Status          enums.AlertStatus   `json:"status"`
	EscalationLevel int                 `json:"escalation_level"`
	HoursUntilShift float64             `json:"hours_until_shift"`
	ResolvedBy      *string             `json:"resolved_by,omitempty"`
}

// BulkOperationCompletedEvent summarises a finished bulk run.
type BulkOperationCompletedEvent struct {
	OperationID  uuid.UUID                 `json:"operation_id"`
	Action       enums.BulkActionType      `json:"action"`
	Status       enums.BulkOperationStatus `json:"status"`
	ShiftCount   int                       `json:"shift_count"`
	SuccessCount int                       `json:"success_count"`
	FailureCount int                       `json:"failure_count"`
	ExecutedBy   string                    `json:"executed_by"`
	Reason       *string                   `json:"reason,omitempty"`
}

// NotificationRequestedEvent asks the delivery side to alert people about a shift.
type NotificationRequestedEvent struct {
	Type         string              `json:"type"`
	ShiftID      uuid.UUID           `json:"shift_id"`
	AlertID      *uuid.UUID          `json:"alert_id,omitempty"`
	GuardID      *uuid.UUID          `json:"guard_id,omitempty"`
	RecipientIDs []string            `json:"recipient_ids,omitempty"`
	Channels     []string            `json:"channels,omitempty"`
	Priority     enums.AlertPriority `json:"priority,omitempty"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
}
