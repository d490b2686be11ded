package enums

import "slices"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeUrgencyAlert NotificationType = "urgency_alert"
	NotificationTypeShiftUpdate  NotificationType = "shift_update"
	NotificationTypeBulkSummary  NotificationType = "bulk_summary"
	NotificationTypeAnnouncement NotificationType = "announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeUrgencyAlert,
	NotificationTypeShiftUpdate,
	NotificationTypeBulkSummary,
	NotificationTypeAnnouncement,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	return slices.Contains(validNotificationTypes, n)
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parse(value, validNotificationTypes, "notification type")
}
