package enums

import "slices"

// TransitionMethod records how a status transition was initiated.
type TransitionMethod string

const (
	TransitionMethodManual    TransitionMethod = "manual"
	TransitionMethodBulk      TransitionMethod = "bulk"
	TransitionMethodAutomatic TransitionMethod = "automatic"
)

var validTransitionMethods = []TransitionMethod{
	TransitionMethodManual,
	TransitionMethodBulk,
	TransitionMethodAutomatic,
}

// IsValid reports whether the value is a known TransitionMethod.
func (m TransitionMethod) IsValid() bool {
	return slices.Contains(validTransitionMethods, m)
}

// ParseTransitionMethod converts raw input into a TransitionMethod.
func ParseTransitionMethod(value string) (TransitionMethod, error) {
	return parse(value, validTransitionMethods, "transition method")
}

// AssignmentStatus tracks a guard's response to a shift assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusConfirmed,
	AssignmentStatusDeclined,
	AssignmentStatusCancelled,
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	return slices.Contains(validAssignmentStatuses, s)
}

// Active reports whether the assignment still counts towards staffing.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentStatusPending || s == AssignmentStatusConfirmed
}
