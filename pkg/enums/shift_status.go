package enums

import "slices"

// ShiftStatus represents the shift_status enum (Kanban column) in Postgres.
type ShiftStatus string

const (
	ShiftStatusUnassigned  ShiftStatus = "unassigned"
	ShiftStatusAssigned    ShiftStatus = "assigned"
	ShiftStatusConfirmed   ShiftStatus = "confirmed"
	ShiftStatusInProgress  ShiftStatus = "in_progress"
	ShiftStatusCompleted   ShiftStatus = "completed"
	ShiftStatusIssueLogged ShiftStatus = "issue_logged"
	ShiftStatusArchived    ShiftStatus = "archived"
)

var validShiftStatuses = []ShiftStatus{
	ShiftStatusUnassigned,
	ShiftStatusAssigned,
	ShiftStatusConfirmed,
	ShiftStatusInProgress,
	ShiftStatusCompleted,
	ShiftStatusIssueLogged,
	ShiftStatusArchived,
}

// ShiftStatuses returns every status in board order.
func ShiftStatuses() []ShiftStatus {
	out := make([]ShiftStatus, len(validShiftStatuses))
	copy(out, validShiftStatuses)
	return out
}

// String implements fmt.Stringer.
func (s ShiftStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShiftStatus.
func (s ShiftStatus) IsValid() bool {
	return slices.Contains(validShiftStatuses, s)
}

// ParseShiftStatus converts raw input into a ShiftStatus.
func ParseShiftStatus(value string) (ShiftStatus, error) {
	return parse(value, validShiftStatuses, "shift status")
}
