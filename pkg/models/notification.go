package models

import (
	"encoding/json"
	"time"
)

// NotificationType classifies an in-app notification
type NotificationType string

const (
	NotificationAchievementUnlocked NotificationType = "achievement_unlocked"
	NotificationLevelUp             NotificationType = "level_up"
	NotificationMissionCompleted    NotificationType = "mission_completed"
	NotificationMissionFailed       NotificationType = "mission_failed"
	NotificationMissionAccepted     NotificationType = "mission_accepted"
	NotificationStreakMilestone     NotificationType = "streak_milestone"
	NotificationSystem              NotificationType = "system"
)

// Notification is an in-app message for one user
type Notification struct {
	ID         string           `json:"id" db:"id"`
	UserID     string           `json:"user_id" db:"user_id"`
	Type       NotificationType `json:"notification_type" db:"notification_type"`
	Title      string           `json:"title" db:"title"`
	Message    string           `json:"message" db:"message"`
	Data       json.RawMessage  `json:"data,omitempty" db:"data"`
	IsRead     bool             `json:"is_read" db:"is_read"`
	IsArchived bool             `json:"is_archived" db:"is_archived"`
	ReadAt     *time.Time       `json:"read_at,omitempty" db:"read_at"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the notification should no longer be shown
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}
