package models

import "time"

// XPAction identifies why XP was granted
type XPAction string

const (
	ActionTaskComplete    XPAction = "task_complete"
	ActionStreakBonus     XPAction = "streak_bonus"
	ActionAchievement     XPAction = "achievement"
	ActionDailyLogin      XPAction = "daily_login"
	ActionBonus           XPAction = "bonus"
	ActionMissionComplete XPAction = "mission_complete"
)

// IsValid reports whether a is a known ledger action
func (a XPAction) IsValid() bool {
	switch a {
	case ActionTaskComplete, ActionStreakBonus, ActionAchievement,
		ActionDailyLogin, ActionBonus, ActionMissionComplete:
		return true
	}
	return false
}

// XPLog is one append-only ledger entry. Summing a user's entries yields their total XP.
type XPLog struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Action      XPAction  `json:"action" db:"action"`
	XPEarned    int       `json:"xp_earned" db:"xp_earned"`
	TaskID      *string   `json:"task_id,omitempty" db:"task_id"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// XPLogFilter narrows ledger aggregation
type XPLogFilter struct {
	Action *XPAction
	From   *time.Time // inclusive
	To     *time.Time // exclusive
}
