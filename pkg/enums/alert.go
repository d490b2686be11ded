package enums

import "slices"

// AlertType enumerates the urgency alert conditions.
type AlertType string

const (
	AlertTypeUnassigned24h    AlertType = "unassigned_24h"
	AlertTypeUnconfirmed12h   AlertType = "unconfirmed_12h"
	AlertTypeNoShowRisk       AlertType = "no_show_risk"
	AlertTypeUnderstaffed     AlertType = "understaffed"
	AlertTypeCertificationGap AlertType = "certification_gap"
)

var validAlertTypes = []AlertType{
	AlertTypeUnassigned24h,
	AlertTypeUnconfirmed12h,
	AlertTypeNoShowRisk,
	AlertTypeUnderstaffed,
	AlertTypeCertificationGap,
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	return slices.Contains(validAlertTypes, a)
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	return parse(value, validAlertTypes, "alert type")
}

// AlertPriority ranks how urgently an alert needs attention.
type AlertPriority string

const (
	AlertPriorityLow      AlertPriority = "low"
	AlertPriorityMedium   AlertPriority = "medium"
	AlertPriorityHigh     AlertPriority = "high"
	AlertPriorityCritical AlertPriority = "critical"
)

var validAlertPriorities = []AlertPriority{
	AlertPriorityLow,
	AlertPriorityMedium,
	AlertPriorityHigh,
	AlertPriorityCritical,
}

// String implements fmt.Stringer.
func (p AlertPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known AlertPriority.
func (p AlertPriority) IsValid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from low (1) to critical (4). Unknown values rank 0.
func (p AlertPriority) Rank() int {
	for i, candidate := range validAlertPriorities {
		if candidate == p {
			return i + 1
		}
	}
	return 0
}

// ParseAlertPriority converts raw input into an AlertPriority.
func ParseAlertPriority(value string) (AlertPriority, error) {
	return parse(value, validAlertPriorities, "alert priority")
}

// AlertStatus tracks the alert lifecycle.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

var validAlertStatuses = []AlertStatus{
	AlertStatusActive,
	AlertStatusAcknowledged,
	AlertStatusResolved,
}

// String implements fmt.Stringer.
func (s AlertStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AlertStatus.
func (s AlertStatus) IsValid() bool {
	return slices.Contains(validAlertStatuses, s)
}

// Urgent reports whether an alert in this state still needs attention.
// Acknowledged alerts stay open but are no longer urgent.
func (s AlertStatus) Urgent() bool {
	return s == AlertStatusActive
}

// ParseAlertStatus converts raw input into an AlertStatus.
func ParseAlertStatus(value string) (AlertStatus, error) {
	return parse(value, validAlertStatuses, "alert status")
}
