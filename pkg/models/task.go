package models

import (
	"strings"
	"time"
)

// Difficulty is the effort tier of a task
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists the known difficulty tiers in ascending order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// IsValid reports whether d is one of the known tiers
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Category groups tasks and scales the XP they are worth
type Category struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	Color        string    `json:"color" db:"color"`
	Icon         string    `json:"icon,omitempty" db:"icon"`
	XPMultiplier float64   `json:"xp_multiplier" db:"xp_multiplier"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Task is a unit of work owned by a user
type Task struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	CategoryID  string     `json:"category_id" db:"category_id"`
	Category    Category   `json:"category" db:"-"` // Joined
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	Priority    Priority   `json:"priority" db:"priority"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// HasDeadline reports whether the task carries a usable due date.
// A due date equal to the creation time leaves no allotted window and counts as no deadline.
func (t *Task) HasDeadline() bool {
	return t.DueDate != nil && t.DueDate.Sub(t.CreatedAt) != 0
}

// CompletedEarlyOrOnTime reports whether a completed task finished at or before its due date
func (t *Task) CompletedEarlyOrOnTime() bool {
	return t.DueDate != nil && t.CompletedAt != nil && !t.CompletedAt.After(*t.DueDate)
}

// CreateTaskRequest is the payload for creating a task
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	CategoryID  string     `json:"category_id" binding:"required"`
	Difficulty  Difficulty `json:"difficulty" binding:"required"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks the request beyond struct tags
func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" || len(r.Title) > 200 {
		return ErrInvalidInput
	}
	if !r.Difficulty.IsValid() {
		return ErrInvalidInput
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !r.Priority.IsValid() {
		return ErrInvalidInput
	}
	return nil
}
