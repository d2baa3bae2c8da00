package domain

import "time"

// Notification is an in-app notification for a single user
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type NotificationType string

const (
	NotificationMatch       NotificationType = "match"
	NotificationMessage     NotificationType = "message"
	NotificationGroupInvite NotificationType = "group_invite"
	NotificationEvent       NotificationType = "event"
	NotificationAchievement NotificationType = "achievement"
)
