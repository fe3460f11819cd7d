package models

import "time"

// AchievementType selects the metric an achievement threshold is measured against
type AchievementType string

const (
	AchievementTaskCount AchievementType = "task_count"
	AchievementStreak    AchievementType = "streak"
	AchievementLevel     AchievementType = "level"
	AchievementCategory  AchievementType = "category"
	AchievementXP        AchievementType = "xp"
	AchievementTiming    AchievementType = "timing"
	AchievementSpecial   AchievementType = "special"
)

// AchievementTypes lists every known achievement type
var AchievementTypes = []AchievementType{
	AchievementTaskCount,
	AchievementStreak,
	AchievementLevel,
	AchievementCategory,
	AchievementXP,
	AchievementTiming,
	AchievementSpecial,
}

// IsValid reports whether t is a known achievement type
func (t AchievementType) IsValid() bool {
	for _, known := range AchievementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Achievement is an unlockable milestone definition
type Achievement struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	AchievementType AchievementType `json:"achievement_type" db:"achievement_type"`
	Threshold       int             `json:"threshold" db:"threshold"`
	XPReward        int             `json:"xp_reward" db:"xp_reward"`
	Icon            string          `json:"icon,omitempty" db:"icon"`
	IsHidden        bool            `json:"is_hidden" db:"is_hidden"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// UserAchievement records that a user unlocked an achievement. At most one per pair.
type UserAchievement struct {
	ID            string       `json:"id" db:"id"`
	UserID        string       `json:"user_id" db:"user_id"`
	AchievementID string       `json:"achievement_id" db:"achievement_id"`
	Achievement   *Achievement `json:"achievement,omitempty" db:"-"` // Joined
	Progress      int          `json:"progress" db:"progress"`
	UnlockedAt    time.Time    `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementProgress pairs a definition with the user's current standing
type AchievementProgress struct {
	Achievement *Achievement `json:"achievement"`
	Progress    int          `json:"progress"`
	Unlocked    bool         `json:"unlocked"`
	UnlockedAt  *time.Time   `json:"unlocked_at,omitempty"`
}
