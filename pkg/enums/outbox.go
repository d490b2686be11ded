package enums

import "slices"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateShift         OutboxAggregateType = "shift"
	AggregateUrgencyAlert  OutboxAggregateType = "urgency_alert"
	AggregateBulkOperation OutboxAggregateType = "bulk_operation"
	AggregateNotification  OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateShift,
	AggregateUrgencyAlert,
	AggregateBulkOperation,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(value, validAggregateTypes, "aggregate type")
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventShiftCreated           OutboxEventType = "shift_created"
	EventShiftStatusChanged     OutboxEventType = "shift_status_changed"
	EventUrgencyAlertRaised     OutboxEventType = "urgency_alert_raised"
	EventUrgencyAlertEscalated  OutboxEventType = "urgency_alert_escalated"
	EventUrgencyAlertResolved   OutboxEventType = "urgency_alert_resolved"
	EventBulkOperationCompleted OutboxEventType = "bulk_operation_completed"
	EventNotificationRequested  OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventShiftCreated,
	EventShiftStatusChanged,
	EventUrgencyAlertRaised,
	EventUrgencyAlertEscalated,
	EventUrgencyAlertResolved,
	EventBulkOperationCompleted,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(value, validOutboxEventTypes, "event type")
}

// OutboxDLQErrorReason maps to outbox_dlq_error_reason_enum and says why an
// event was dead lettered.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts marks an event whose retries ran out.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable marks an event that could never publish,
	// such as one with an undecodable payload or no route.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) String() string { return string(r) }

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
