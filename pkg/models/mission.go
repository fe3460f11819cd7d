package models

import "time"

// MissionType selects which activity advances a mission
type MissionType string

const (
	MissionTaskCount       MissionType = "task_count"
	MissionCategoryFocus   MissionType = "category_focus"
	MissionStreak          MissionType = "streak"
	MissionTiming          MissionType = "timing"
	MissionHardTasks       MissionType = "difficulty"
	MissionXPTarget        MissionType = "xp_target"
	MissionDailyGoal       MissionType = "daily_goal"
	MissionWeeklyChallenge MissionType = "weekly_challenge"
)

// IsValid reports whether t is a known mission type
func (t MissionType) IsValid() bool {
	switch t {
	case MissionTaskCount, MissionCategoryFocus, MissionStreak, MissionTiming,
		MissionHardTasks, MissionXPTarget, MissionDailyGoal, MissionWeeklyChallenge:
		return true
	}
	return false
}

// MissionDifficulty is the advertised challenge of a template
type MissionDifficulty string

const (
	MissionEasy      MissionDifficulty = "easy"
	MissionMedium    MissionDifficulty = "medium"
	MissionHard      MissionDifficulty = "hard"
	MissionLegendary MissionDifficulty = "legendary"
)

// MissionStatus is the lifecycle state of a user mission
type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionFailed    MissionStatus = "failed"
	MissionAbandoned MissionStatus = "abandoned"
)

// IsTerminal reports whether no further transition is allowed
func (s MissionStatus) IsTerminal() bool {
	return s == MissionCompleted || s == MissionFailed || s == MissionAbandoned
}

// CanTransitionTo enforces active -> {completed, failed, abandoned}
func (s MissionStatus) CanTransitionTo(next MissionStatus) bool {
	return s == MissionActive && next.IsTerminal()
}

// MissionCadence records how a mission was handed out
type MissionCadence string

const (
	CadenceDaily    MissionCadence = "daily"
	CadenceAccepted MissionCadence = "accepted"
)

// MissionTemplate is a reusable mission definition
type MissionTemplate struct {
	ID              string            `json:"id" db:"id"`
	Name            string            `json:"name" db:"name"`
	Description     string            `json:"description" db:"description"`
	MissionType     MissionType       `json:"mission_type" db:"mission_type"`
	Difficulty      MissionDifficulty `json:"difficulty" db:"difficulty"`
	TargetValue     int               `json:"target_value" db:"target_value"`
	DurationDays    int               `json:"duration_days" db:"duration_days"`
	XPReward        int               `json:"xp_reward" db:"xp_reward"`
	BonusMultiplier float64           `json:"bonus_multiplier" db:"bonus_multiplier"`
	CategoryID      *string           `json:"category_id,omitempty" db:"category_id"`
	MinUserLevel    int               `json:"min_user_level" db:"min_user_level"`
	MaxUserLevel    *int              `json:"max_user_level,omitempty" db:"max_user_level"`
	IsActive        bool              `json:"is_active" db:"is_active"`
	IsRepeatable    bool              `json:"is_repeatable" db:"is_repeatable"`
	Weight          int               `json:"weight" db:"weight"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// FitsLevel reports whether a user at level may take this template
func (t *MissionTemplate) FitsLevel(level int) bool {
	if level < t.MinUserLevel {
		return false
	}
	return t.MaxUserLevel == nil || level <= *t.MaxUserLevel
}

// IsDaily reports whether the template fits in a single day
func (t *MissionTemplate) IsDaily() bool {
	return t.DurationDays <= 1
}

// UserMission is a template instantiated for one user
type UserMission struct {
	ID              string         `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	TemplateID      string         `json:"template_id" db:"template_id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	MissionType     MissionType    `json:"mission_type" db:"mission_type"`
	Cadence         MissionCadence `json:"cadence" db:"cadence"`
	CategoryID      *string        `json:"category_id,omitempty" db:"category_id"`
	TargetValue     int            `json:"target_value" db:"target_value"`
	CurrentProgress int            `json:"current_progress" db:"current_progress"`
	Status          MissionStatus  `json:"status" db:"status"`
	XPReward        int            `json:"xp_reward" db:"xp_reward"`
	BonusMultiplier float64        `json:"bonus_multiplier" db:"bonus_multiplier"`
	AssignedDate    time.Time      `json:"assigned_date" db:"assigned_date"`
	StartDate       time.Time      `json:"start_date" db:"start_date"`
	EndDate         time.Time      `json:"end_date" db:"end_date"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the mission reached its target
func (m *UserMission) IsCompleted() bool {
	return m.Status == MissionCompleted
}

// IsExpired reports whether an active mission ran past its end date
func (m *UserMission) IsExpired(now time.Time) bool {
	return m.Status == MissionActive && now.After(m.EndDate)
}

// ProgressPercentage is the share of the target reached so far
func (m *UserMission) ProgressPercentage() float64 {
	if m.TargetValue <= 0 {
		return 0
	}
	pct := float64(m.CurrentProgress) / float64(m.TargetValue) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// RewardXP is the XP granted on completion
func (m *UserMission) RewardXP() int {
	if m.BonusMultiplier <= 0 {
		return m.XPReward
	}
	return int(float64(m.XPReward) * m.BonusMultiplier)
}

// MissionFilter narrows user mission listings
type MissionFilter struct {
	Cadence     *MissionCadence
	MissionType *MissionType
	Status      *MissionStatus
	AssignedOn  *time.Time
}
