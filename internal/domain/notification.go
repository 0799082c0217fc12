package domain

import "time"

type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationSystem   NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	return t == NotificationLowStock || t == NotificationSystem
}

type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityMedium   NotificationPriority = "medium"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

// Notification is an alert shown to till staff. RelatedEntityID points at
// the product for low-stock alerts.
type Notification struct {
	ID              int64                `json:"id"`
	Type            NotificationType     `json:"type"`
	Priority        NotificationPriority `json:"priority"`
	Title           string               `json:"title"`
	Message         string               `json:"message"`
	IsRead          bool                 `json:"isRead"`
	RelatedEntityID int64                `json:"relatedEntityId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}
