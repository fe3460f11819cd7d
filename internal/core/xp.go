package core

import (
	"fmt"
	"time"

	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

var baseXP = map[models.Difficulty]int{
	models.DifficultyEasy:   10,
	models.DifficultyMedium: 20,
	models.DifficultyHard:   40,
	models.DifficultyExpert: 100,
}

const defaultBaseXP = 25

var priorityBonus = map[models.Priority]float64{
	models.PriorityLow:    1.0,
	models.PriorityMedium: 1.1,
	models.PriorityHigh:   1.25,
	models.PriorityUrgent: 2.5,
}

var minDwell = map[models.Difficulty]time.Duration{
	models.DifficultyEasy:   15 * time.Minute,
	models.DifficultyMedium: time.Hour,
	models.DifficultyHard:   4 * time.Hour,
	models.DifficultyExpert: 24 * time.Hour,
}

const defaultMinDwell = time.Hour

// timingBand maps a lower bound of the time-remaining ratio to its modifier and status
type timingBand struct {
	min      float64
	modifier float64
	status   string
}

// ordered from earliest to latest; the first band whose min the ratio reaches wins
var timingBands = []timingBand{
	{0.5, 1.3, "completed early - bonus XP!"},
	{0.25, 1.15, "good timing - bonus XP!"},
	{0, 1.0, "completed on time"},
	{-0.25, 0.8, "slightly late - XP penalty"},
	{-0.5, 0.6, "late - XP penalty"},
}

var veryLate = timingBand{modifier: 0.4, status: "very late - major XP penalty"}

const noDeadlineStatus = "no deadline"

// TimeRemainingRatio is the share of the task's allotted window still left at now.
// ok is false for tasks without a usable deadline.
func TimeRemainingRatio(task *models.Task, now time.Time) (ratio float64, ok bool) {
	if !task.HasDeadline() {
		return 0, false
	}
	total := task.DueDate.Sub(task.CreatedAt).Seconds()
	return task.DueDate.Sub(now).Seconds() / total, true
}

func timingFor(task *models.Task, now time.Time) (timingBand, bool) {
	ratio, ok := TimeRemainingRatio(task, now)
	if !ok {
		return timingBand{modifier: 1.0, status: noDeadlineStatus}, false
	}
	for _, b := range timingBands {
		if ratio >= b.min {
			return b, true
		}
	}
	return veryLate, true
}

// TimingModifier returns the XP multiplier for completing task at now
func TimingModifier(task *models.Task, now time.Time) float64 {
	b, _ := timingFor(task, now)
	return b.modifier
}

// TimingStatus returns the human-readable timing label for completing task at now
func TimingStatus(task *models.Task, now time.Time) string {
	b, _ := timingFor(task, now)
	return b.status
}

// CalculateTaskXP computes the reward for completing task at now.
// Each multiplication truncates toward zero; the result is at least 1.
func CalculateTaskXP(task *models.Task, now time.Time) int {
	xp, ok := baseXP[task.Difficulty]
	if !ok {
		xp = defaultBaseXP
	}

	xp = int(float64(xp) * task.Category.XPMultiplier)

	bonus, ok := priorityBonus[task.Priority]
	if !ok {
		bonus = 1.0
	}
	xp = int(float64(xp) * bonus)

	xp = int(float64(xp) * TimingModifier(task, now))

	if xp < 1 {
		return 1
	}
	return xp
}

// CanCompleteTask enforces the per-difficulty minimum dwell time since creation
func CanCompleteTask(task *models.Task, now time.Time) models.CompletionCheck {
	dwell, ok := minDwell[task.Difficulty]
	if !ok {
		dwell = defaultMinDwell
	}

	elapsed := now.Sub(task.CreatedAt)
	if elapsed < dwell {
		return models.CompletionCheck{
			Allowed: false,
			Message: fmt.Sprintf("Task created too recently. Wait %s before completing this %s task.",
				utils.FormatWait(dwell-elapsed), task.Difficulty),
		}
	}
	return models.CompletionCheck{Allowed: true, Message: "Task can be completed"}
}

// completionBucket classifies a finished task for the early/on-time/late counters.
// Tasks without a usable deadline fall in no bucket.
type completionBucket int

const (
	bucketNone completionBucket = iota
	bucketEarly
	bucketOnTime
	bucketLate
)

func bucketFor(task *models.Task, completedAt time.Time) completionBucket {
	ratio, ok := TimeRemainingRatio(task, completedAt)
	if !ok {
		return bucketNone
	}
	if completedAt.After(*task.DueDate) {
		return bucketLate
	}
	if ratio >= 0.25 {
		return bucketEarly
	}
	return bucketOnTime
}
