package models

import (
	"strings"
	"time"
)

// LeaderboardKind is the scope of a leaderboard
type LeaderboardKind string

const (
	LeaderboardGlobal   LeaderboardKind = "global"
	LeaderboardDaily    LeaderboardKind = "daily"
	LeaderboardWeekly   LeaderboardKind = "weekly"
	LeaderboardMonthly  LeaderboardKind = "monthly"
	LeaderboardCategory LeaderboardKind = "category"
	LeaderboardFriends  LeaderboardKind = "friends"
)

// IsValid reports whether k is a known scope
func (k LeaderboardKind) IsValid() bool {
	switch k {
	case LeaderboardGlobal, LeaderboardDaily, LeaderboardWeekly, LeaderboardMonthly,
		LeaderboardCategory, LeaderboardFriends:
		return true
	}
	return false
}

// LeaderboardPeriod is the window rankings are aggregated over
type LeaderboardPeriod string

const (
	PeriodDaily   LeaderboardPeriod = "daily"
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "all_time"
)

// AllTimeEpoch is where the all-time window starts
var AllTimeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseLeaderboardPeriod maps user input onto a known period
func ParseLeaderboardPeriod(s string) (LeaderboardPeriod, bool) {
	switch p := LeaderboardPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return p, true
	}
	return "", false
}

// WindowStart returns the beginning of the period ending at now
func (p LeaderboardPeriod) WindowStart(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return now.AddDate(0, 0, -1)
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case PeriodMonthly:
		return now.AddDate(0, 0, -30)
	default:
		return AllTimeEpoch
	}
}

// Kind is the leaderboard scope the period writes into
func (p LeaderboardPeriod) Kind() LeaderboardKind {
	if p == PeriodAllTime {
		return LeaderboardGlobal
	}
	return LeaderboardKind(p)
}

// ResetFrequency is how often the period's board rolls over
func (p LeaderboardPeriod) ResetFrequency() string {
	if p == PeriodAllTime {
		return "never"
	}
	return string(p)
}

// BoardName is the display name of the period's global board, e.g. "Weekly Global Leaderboard"
func (p LeaderboardPeriod) BoardName() string {
	parts := strings.Split(string(p), "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, "_") + " Global Leaderboard"
}

// LeaderboardType is a named ranking scope
type LeaderboardType struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	LeaderboardType LeaderboardKind `json:"leaderboard_type" db:"leaderboard_type"`
	CategoryID      *string         `json:"category_id,omitempty" db:"category_id"`
	ResetFrequency  string          `json:"reset_frequency" db:"reset_frequency"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// LeaderboardEntry is one user's ranked snapshot for a period. Unique per (type, user, period start).
type LeaderboardEntry struct {
	ID                string    `json:"id" db:"id"`
	LeaderboardTypeID string    `json:"leaderboard_type_id" db:"leaderboard_type_id"`
	UserID            string    `json:"user_id" db:"user_id"`
	Username          string    `json:"username,omitempty" db:"-"` // Joined
	Score             int       `json:"score" db:"score"`
	Rank              int       `json:"rank" db:"rank"`
	TasksCompleted    int       `json:"tasks_completed" db:"tasks_completed"`
	TotalXP           int       `json:"total_xp" db:"total_xp"`
	StreakCount       int       `json:"streak_count" db:"streak_count"`
	PunctualityRate   float64   `json:"punctuality_rate" db:"punctuality_rate"`
	PeriodStart       time.Time `json:"period_start" db:"period_start"`
	PeriodEnd         time.Time `json:"period_end" db:"period_end"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PositionEntry is a leaderboard row annotated for the requesting user
type PositionEntry struct {
	*LeaderboardEntry
	IsCurrentUser bool `json:"is_current_user"`
}

// RankingResult summarizes one ranking refresh
type RankingResult struct {
	Period         LeaderboardPeriod `json:"period"`
	LeaderboardID  string            `json:"leaderboard_id"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	EntriesWritten int               `json:"entries_written"`
	Errors         []string          `json:"errors,omitempty"`
}
