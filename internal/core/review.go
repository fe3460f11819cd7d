package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

const reviewWindowDays = 7

// categoryTally keeps categories in the order they were first seen
type categoryTally struct {
	names []string
	stats map[string]models.CategoryStat
}

func (c *categoryTally) add(name string, xp int) {
	if c.stats == nil {
		c.stats = make(map[string]models.CategoryStat)
	}
	s, ok := c.stats[name]
	if !ok {
		c.names = append(c.names, name)
	}
	s.Count++
	s.TotalXP += xp
	c.stats[name] = s
}

// mostAndLeast returns the first category holding the highest count and the first holding the lowest
func (c *categoryTally) mostAndLeast() (most, least string) {
	for _, name := range c.names {
		if most == "" || c.stats[name].Count > c.stats[most].Count {
			most = name
		}
		if least == "" || c.stats[name].Count < c.stats[least].Count {
			least = name
		}
	}
	return most, least
}

// GenerateWeeklyReview scores the last seven days and stores the review, replacing one already written for the same week
func (e *gamificationEngine) GenerateWeeklyReview(ctx context.Context, userID string) (*models.WeeklyReview, error) {
	if _, err := e.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	midnight := utils.StartOfDay(now, e.loc)
	from := midnight.AddDate(0, 0, -reviewWindowDays)
	to := midnight.AddDate(0, 0, 1)

	tasks, err := e.store.Tasks().ListCompletedBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	action := models.ActionTaskComplete
	totalXP, err := e.store.XPLogs().Sum(ctx, userID, models.XPLogFilter{Action: &action, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to sum weekly xp: %w", err)
	}

	today := e.today(now)
	review := &models.WeeklyReview{
		ID:         utils.NewID(),
		UserID:     userID,
		WeekStart:  today.AddDate(0, 0, -reviewWindowDays),
		WeekEnd:    today,
		TotalTasks: len(tasks),
		TotalXP:    totalXP,
		CreatedAt:  now,
	}

	var categories categoryTally
	for _, task := range tasks {
		completedAt := now
		if task.CompletedAt != nil {
			completedAt = *task.CompletedAt
		}
		switch bucketFor(task, completedAt) {
		case bucketEarly:
			review.EarlyCompletions++
		case bucketOnTime:
			review.OnTimeCompletions++
		case bucketLate:
			review.LateCompletions++
		}

		xp := 0
		entry, err := e.store.XPLogs().FindTaskCompletion(ctx, task.ID)
		switch {
		case err == nil:
			xp = entry.XPEarned
		case !errors.Is(err, models.ErrNotFound):
			return nil, fmt.Errorf("failed to find task xp: %w", err)
		}
		categories.add(task.Category.Name, xp)
	}

	review.CategoryBreakdown = categories.stats
	if review.CategoryBreakdown == nil {
		review.CategoryBreakdown = map[string]models.CategoryStat{}
	}
	review.PerformanceScore = performanceScore(review)
	review.Suggestions = strings.Join(suggestionsFor(review, &categories), "\n")

	if err := e.store.Reviews().Upsert(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save weekly review: %w", err)
	}
	return review, nil
}

// ListWeeklyReviews returns the user's newest reviews first
func (e *gamificationEngine) ListWeeklyReviews(ctx context.Context, userID string, limit int) ([]*models.WeeklyReview, error) {
	reviews, err := e.store.Reviews().ListByUser(ctx, userID, utils.ValidateLimit(limit, 10, 52))
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly reviews: %w", err)
	}
	return reviews, nil
}

// performanceScore weighs timing (up to 100) and volume (up to 50)
func performanceScore(r *models.WeeklyReview) int {
	var timing float64
	if r.TotalTasks > 0 {
		weighted := float64(r.EarlyCompletions)*2 + float64(r.OnTimeCompletions)*1.5
		timing = min(weighted/float64(r.TotalTasks)*50, 100)
	}
	productivity := min(float64(r.TotalTasks)/reviewWindowDays*20, 50)
	return int(timing + productivity)
}

func suggestionsFor(r *models.WeeklyReview, categories *categoryTally) []string {
	var out []string

	if r.TotalTasks < 5 {
		out = append(out, "📈 Try to complete at least 5 tasks per week to maintain good productivity.")
	} else if r.TotalTasks >= 20 {
		out = append(out, "🌟 Excellent productivity! You completed a high number of tasks this week.")
	}

	timed := r.EarlyCompletions + r.OnTimeCompletions + r.LateCompletions
	if timed > 0 {
		latePct := float64(r.LateCompletions) / float64(timed) * 100
		earlyPct := float64(r.EarlyCompletions) / float64(timed) * 100
		switch {
		case latePct > 30:
			out = append(out,
				"⏰ Consider setting more realistic deadlines - 30%+ of your tasks were completed late.",
				"💡 Try breaking larger tasks into smaller, more manageable chunks.")
		case earlyPct > 60:
			out = append(out,
				"🚀 Great time management! You're completing tasks early consistently.",
				"🎯 Consider taking on more challenging tasks to maximize your XP potential.")
		case r.LateCompletions == 0 && earlyPct > 0:
			out = append(out, "⭐ Perfect timing! No late completions this week - keep it up!")
		}
	}

	if len(categories.names) > 0 {
		most, least := categories.mostAndLeast()
		if categories.stats[most].Count >= 3 {
			out = append(out, fmt.Sprintf("🔥 You're crushing it in %s! Consider leveraging this momentum.", most))
		}
		if len(categories.names) > 1 && categories.stats[least].Count == 1 {
			out = append(out, fmt.Sprintf("📚 Consider focusing more on %s tasks for better balance.", least))
		}
	}

	if len(out) == 0 {
		out = append(out, "✨ Keep up the good work! Your task management is on track.")
	}
	return out
}
