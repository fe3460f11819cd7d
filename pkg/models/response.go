package models

import "time"

// APIResponse is the envelope every HTTP endpoint returns
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// PaginationMeta describes a page of results
type PaginationMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPaginationMeta builds pagination metadata consistently
func NewPaginationMeta(total, limit, offset int) PaginationMeta {
	return PaginationMeta{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// CompletionCheck is the outcome of a completion eligibility check
type CompletionCheck struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
}

// AwardResult is the outcome of awarding XP for a task
type AwardResult struct {
	Awarded       bool          `json:"awarded"`
	XPEarned      int           `json:"xp_earned"`
	StreakBonus   int           `json:"streak_bonus,omitempty"`
	Message       string        `json:"message"`
	TimingStatus  string        `json:"timing_status,omitempty"`
	LevelBefore   int           `json:"level_before,omitempty"`
	LevelAfter    int           `json:"level_after,omitempty"`
	Unlocked      []Achievement `json:"unlocked_achievements,omitempty"`
	MissionsDone  []UserMission `json:"completed_missions,omitempty"`
	TotalXP       int           `json:"total_xp,omitempty"`
	CurrentStreak int           `json:"current_streak,omitempty"`
}

// LeveledUp reports whether the award crossed a level boundary
func (r *AwardResult) LeveledUp() bool {
	return r.LevelAfter > r.LevelBefore
}

// AcceptResult is the outcome of accepting a mission
type AcceptResult struct {
	Accepted bool         `json:"accepted"`
	Reason   string       `json:"reason,omitempty"`
	Mission  *UserMission `json:"mission,omitempty"`
}

// StreakSummary is the result of rebuilding streak counters from history
type StreakSummary struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastActivity  *time.Time `json:"last_activity"`
}

// MaintenanceResult reports one daily maintenance run
type MaintenanceResult struct {
	LeaderboardsUpdated  bool     `json:"leaderboards_updated"`
	MissionsAssigned     int      `json:"missions_assigned"`
	MissionsExpired      int      `json:"missions_expired"`
	NotificationsCleaned int      `json:"notifications_cleaned"`
	AchievementsChecked  int      `json:"achievements_checked"`
	Failures             []string `json:"failures,omitempty"`
	Error                string   `json:"error,omitempty"`
}
