package models

import "time"

// ProgressProfile is the per-user progression state
type ProgressProfile struct {
	UserID                 string     `json:"user_id" db:"user_id"`
	TotalXP                int        `json:"total_xp" db:"total_xp"`
	CurrentLevel           int        `json:"current_level" db:"current_level"`
	CurrentStreak          int        `json:"current_streak" db:"current_streak"`
	LongestStreak          int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate       *time.Time `json:"last_activity_date,omitempty" db:"last_activity_date"`
	TotalEarlyCompletions  int        `json:"total_early_completions" db:"total_early_completions"`
	TotalOnTimeCompletions int        `json:"total_on_time_completions" db:"total_on_time_completions"`
	TotalLateCompletions   int        `json:"total_late_completions" db:"total_late_completions"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// NewProgressProfile returns the default profile for a user who has not earned anything yet
func NewProgressProfile(userID string, now time.Time) *ProgressProfile {
	return &ProgressProfile{
		UserID:       userID,
		CurrentLevel: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CalculateXPForLevel returns the cumulative XP needed to reach level.
// Each level L past the first costs L*100 more: level 2 needs 200, level 3 needs 500, level 4 needs 900.
func CalculateXPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * (level*(level+1)/2 - 1)
}

// LevelForXP returns the highest level whose cumulative requirement totalXP meets
func LevelForXP(totalXP int) int {
	level := 1
	for totalXP >= CalculateXPForLevel(level+1) {
		level++
	}
	return level
}

// XPForCurrentLevel is the cumulative XP at which the current level began
func (p *ProgressProfile) XPForCurrentLevel() int {
	return CalculateXPForLevel(p.CurrentLevel)
}

// XPForNextLevel is the cumulative XP at which the next level begins
func (p *ProgressProfile) XPForNextLevel() int {
	return CalculateXPForLevel(p.CurrentLevel + 1)
}

// XPProgressInCurrentLevel is the XP gained since the current level began
func (p *ProgressProfile) XPProgressInCurrentLevel() int {
	return p.TotalXP - p.XPForCurrentLevel()
}

// ProgressPercentage is how far through the current level the user is
func (p *ProgressProfile) ProgressPercentage() float64 {
	segment := p.XPForNextLevel() - p.XPForCurrentLevel()
	if segment <= 0 {
		return 100.0
	}
	return float64(p.XPProgressInCurrentLevel()) / float64(segment) * 100.0
}

// XPNeededForNextLevel is the XP still missing to level up
func (p *ProgressProfile) XPNeededForNextLevel() int {
	return p.XPForNextLevel() - p.TotalXP
}

// PunctualityRate is the share of timed completions that were early or on time, as a whole percentage
func (p *ProgressProfile) PunctualityRate() int {
	timed := p.TotalEarlyCompletions + p.TotalOnTimeCompletions + p.TotalLateCompletions
	if timed == 0 {
		return 100
	}
	return int(float64(p.TotalEarlyCompletions+p.TotalOnTimeCompletions) / float64(timed) * 100)
}

// ProfileSummary is the read view served to clients
type ProfileSummary struct {
	*ProgressProfile
	XPForCurrentLevel    int     `json:"xp_for_current_level"`
	XPForNextLevel       int     `json:"xp_for_next_level"`
	XPProgress           int     `json:"xp_progress_in_current_level"`
	ProgressPercentage   float64 `json:"progress_percentage"`
	XPNeededForNextLevel int     `json:"xp_needed_for_next_level"`
	PunctualityRate      int     `json:"punctuality_rate"`
}

// Summary builds the derived read view
func (p *ProgressProfile) Summary() *ProfileSummary {
	return &ProfileSummary{
		ProgressProfile:      p,
		XPForCurrentLevel:    p.XPForCurrentLevel(),
		XPForNextLevel:       p.XPForNextLevel(),
		XPProgress:           p.XPProgressInCurrentLevel(),
		ProgressPercentage:   p.ProgressPercentage(),
		XPNeededForNextLevel: p.XPNeededForNextLevel(),
		PunctualityRate:      p.PunctualityRate(),
	}
}
