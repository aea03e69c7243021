package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeAgentDesignated NotificationType = "agent_designated"
	NotificationTypeAgentAccepted   NotificationType = "agent_accepted"
	NotificationTypeAgentDeclined   NotificationType = "agent_declined"
	NotificationTypePOAActivated    NotificationType = "poa_activated"
	NotificationTypePOARevoked      NotificationType = "poa_revoked"
	NotificationTypePOAExpired      NotificationType = "poa_expired"
	NotificationTypeDocumentReady   NotificationType = "document_ready"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeAgentDesignated,
	NotificationTypeAgentAccepted,
	NotificationTypeAgentDeclined,
	NotificationTypePOAActivated,
	NotificationTypePOARevoked,
	NotificationTypePOAExpired,
	NotificationTypeDocumentReady,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
