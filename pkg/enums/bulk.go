package enums

import "slices"

// BulkActionType names the action applied by a bulk operation.
type BulkActionType string

const (
	BulkActionStatusChange   BulkActionType = "status_change"
	BulkActionAssign         BulkActionType = "assign"
	BulkActionPriorityUpdate BulkActionType = "priority_update"
	BulkActionNotification   BulkActionType = "notification"
	BulkActionClone          BulkActionType = "clone"
)

var validBulkActionTypes = []BulkActionType{
	BulkActionStatusChange,
	BulkActionAssign,
	BulkActionPriorityUpdate,
	BulkActionNotification,
	BulkActionClone,
}

// String implements fmt.Stringer.
func (a BulkActionType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known BulkActionType.
func (a BulkActionType) IsValid() bool {
	return slices.Contains(validBulkActionTypes, a)
}

// ParseBulkActionType converts raw input into a BulkActionType.
func ParseBulkActionType(value string) (BulkActionType, error) {
	return parse(value, validBulkActionTypes, "bulk action")
}

// BulkOperationStatus tracks a bulk run.
type BulkOperationStatus string

const (
	BulkOperationExecuting BulkOperationStatus = "executing"
	BulkOperationCompleted BulkOperationStatus = "completed"
	BulkOperationFailed    BulkOperationStatus = "failed"
)
