package models

import "time"

// CategoryStat aggregates one category's completions inside a review window
type CategoryStat struct {
	Count   int `json:"count"`
	TotalXP int `json:"total_xp"`
}

// WeeklyReview is a scored summary of one user's last seven days. Unique per (user, week start).
type WeeklyReview struct {
	ID                string                  `json:"id" db:"id"`
	UserID            string                  `json:"user_id" db:"user_id"`
	WeekStart         time.Time               `json:"week_start" db:"week_start"`
	WeekEnd           time.Time               `json:"week_end" db:"week_end"`
	TotalTasks        int                     `json:"total_tasks" db:"total_tasks"`
	TotalXP           int                     `json:"total_xp" db:"total_xp"`
	EarlyCompletions  int                     `json:"early_completions" db:"early_completions"`
	OnTimeCompletions int                     `json:"on_time_completions" db:"on_time_completions"`
	LateCompletions   int                     `json:"late_completions" db:"late_completions"`
	PerformanceScore  int                     `json:"performance_score" db:"performance_score"`
	Suggestions       string                  `json:"suggestions" db:"suggestions"`
	CategoryBreakdown map[string]CategoryStat `json:"category_breakdown" db:"category_breakdown"`
	CreatedAt         time.Time               `json:"created_at" db:"created_at"`
}

// PerformanceGrade maps the score onto a letter grade
func (r *WeeklyReview) PerformanceGrade() string {
	switch s := r.PerformanceScore; {
	case s >= 90:
		return "A+"
	case s >= 85:
		return "A"
	case s >= 80:
		return "B+"
	case s >= 75:
		return "B"
	case s >= 70:
		return "C+"
	case s >= 65:
		return "C"
	case s >= 60:
		return "D"
	default:
		return "F"
	}
}
