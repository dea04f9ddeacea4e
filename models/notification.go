// File: /models/notification.go
package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeInvitation        NotificationType = "event_invitation"
	NotificationTypeEventCancelled    NotificationType = "event_cancelled"
	NotificationTypeEventTimeChanged  NotificationType = "event_time_changed"
	NotificationTypeEventLocationChanged NotificationType = "event_location_changed"
	NotificationTypeEventUpdated      NotificationType = "event_updated"
	NotificationTypeParticipantReminder NotificationType = "reminder_participant"
	NotificationTypeOrganizerReminder NotificationType = "reminder_organizer"
)

// Notification is a durable record addressed to one recipient. When DedupKey
// is non-null, (recipient_id, dedup_key) is unique and repeat writes are
// silently skipped; a null key permits duplicates (one-shot interactive
// actions).
type Notification struct {
	ID          string           `json:"id" gorm:"primaryKey;size:191"`
	RecipientID string           `json:"recipient_id" gorm:"not null;size:191;index"`
	Type        NotificationType `json:"type" gorm:"not null;size:50"`
	Title       string           `json:"title" gorm:"not null;size:255"`
	Body        string           `json:"body" gorm:"type:text"`
	EventID     *string          `json:"event_id" gorm:"size:191"`
	Payload     JSONData         `json:"payload" gorm:"type:json"`
	DedupKey    *string          `json:"dedup_key" gorm:"size:255;index:idx_notifications_recipient_dedup"`
	IsRead      bool             `json:"is_read" gorm:"default:false"`
	CreatedAt   time.Time        `json:"created_at"`

	Recipient User   `json:"-" gorm:"foreignKey:RecipientID"`
	Event     *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}

// NotificationStats represents notification statistics
type NotificationStats struct {
	UnreadCount int64 `json:"unread_count"`
	TotalCount  int64 `json:"total_count"`
}
