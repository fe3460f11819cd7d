package core

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/pkg/models"
)

func TestGenerateWeeklyReview(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC))
	home := f.addCategory(t, "Home", 1.0)

	t0 := time.Date(2026, time.March, 6, 8, 0, 0, 0, time.UTC)
	due := timePtr(t0.Add(10 * time.Hour))
	early := f.completeAt(t, "u1", f.category, t0, due, t0.Add(time.Hour))
	f.completeAt(t, "u1", f.category, t0, due, t0.Add(9*time.Hour))
	f.completeAt(t, "u1", f.category, t0, due, t0.Add(11*time.Hour))
	f.completeAt(t, "u1", home, t0, nil, t0.Add(2*time.Hour))
	// outside the window
	f.completeAt(t, "u1", home, t0.AddDate(0, 0, -10), nil, t0.AddDate(0, 0, -9))
	f.completeAt(t, "u2", home, t0, nil, t0.Add(time.Hour))

	require.NoError(t, f.store.XPLogs().Create(f.ctx, &models.XPLog{
		ID: uuid.New().String(), UserID: "u1", Action: models.ActionTaskComplete,
		XPEarned: 26, TaskID: &early.ID, CreatedAt: t0.Add(time.Hour),
	}))

	review, err := f.engine.GenerateWeeklyReview(f.ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), review.WeekStart)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), review.WeekEnd)
	assert.Equal(t, 4, review.TotalTasks)
	assert.Equal(t, 26, review.TotalXP)
	assert.Equal(t, 1, review.EarlyCompletions)
	assert.Equal(t, 1, review.OnTimeCompletions)
	assert.Equal(t, 1, review.LateCompletions)
	assert.Equal(t, map[string]models.CategoryStat{
		"Work": {Count: 3, TotalXP: 26},
		"Home": {Count: 1},
	}, review.CategoryBreakdown)
	assert.Equal(t, 55, review.PerformanceScore)

	lines := strings.Split(review.Suggestions, "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "📈"))
	assert.True(t, strings.HasPrefix(lines[1], "⏰"))
	assert.True(t, strings.HasPrefix(lines[2], "💡"))
	assert.Equal(t, "🔥 You're crushing it in Work! Consider leveraging this momentum.", lines[3])
	assert.Equal(t, "📚 Consider focusing more on Home tasks for better balance.", lines[4])
}

func TestGenerateWeeklyReviewReplacesSameWeek(t *testing.T) {
	f := newFixture(t)
	first, err := f.engine.GenerateWeeklyReview(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, first.TotalTasks)
	assert.Equal(t, 0, first.PerformanceScore)
	assert.Equal(t, "📈 Try to complete at least 5 tasks per week to maintain good productivity.", first.Suggestions)
	assert.Empty(t, first.CategoryBreakdown)

	f.completeAt(t, "u1", f.category, baseTime.Add(-2*time.Hour), nil, baseTime.Add(-time.Hour))
	f.clock.Advance(time.Hour)
	second, err := f.engine.GenerateWeeklyReview(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.TotalTasks)

	reviews, err := f.engine.ListWeeklyReviews(f.ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 1, reviews[0].TotalTasks)
}

func TestPerformanceScoreCaps(t *testing.T) {
	r := &models.WeeklyReview{TotalTasks: 30, EarlyCompletions: 30}
	assert.Equal(t, 150, performanceScore(r))

	r = &models.WeeklyReview{TotalTasks: 7}
	assert.Equal(t, 20, performanceScore(r))
}

func TestSuggestionsForGoodWeek(t *testing.T) {
	var tally categoryTally
	for i := 0; i < 20; i++ {
		tally.add("Work", 10)
	}
	r := &models.WeeklyReview{TotalTasks: 20, EarlyCompletions: 15, OnTimeCompletions: 5}
	got := suggestionsFor(r, &tally)
	assert.Equal(t, []string{
		"🌟 Excellent productivity! You completed a high number of tasks this week.",
		"🚀 Great time management! You're completing tasks early consistently.",
		"🎯 Consider taking on more challenging tasks to maximize your XP potential.",
		"🔥 You're crushing it in Work! Consider leveraging this momentum.",
	}, got)

	r = &models.WeeklyReview{TotalTasks: 6, EarlyCompletions: 2, OnTimeCompletions: 4}
	var small categoryTally
	small.add("Work", 1)
	small.add("Home", 1)
	small.add("Home", 1)
	assert.Equal(t, []string{
		"⭐ Perfect timing! No late completions this week - keep it up!",
		"📚 Consider focusing more on Work tasks for better balance.",
	}, suggestionsFor(r, &small))
}
