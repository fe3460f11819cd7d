package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

func TestWithTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(tx repository.Store) error {
		_, err := tx.Profiles().Ensure(ctx, "u1", now)
		require.NoError(t, err)
		require.NoError(t, tx.XPLogs().Create(ctx, &models.XPLog{
			ID: "l1", UserID: "u1", Action: models.ActionBonus, XPEarned: 5, CreatedAt: now,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Profiles().Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, s.AllXPLogs())
}

func TestWithTransactionCommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	err := s.WithTransaction(ctx, func(tx repository.Store) error {
		return tx.WithTransaction(ctx, func(inner repository.Store) error {
			_, err := inner.Profiles().Ensure(ctx, "u1", now)
			return err
		})
	})
	require.NoError(t, err)

	p, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentLevel)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	p, err := s.Profiles().Ensure(ctx, "u1", now)
	require.NoError(t, err)
	p.TotalXP = 999

	stored, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalXP)
}

func TestTaskCompletionAndCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := created.Add(48 * time.Hour)

	cat := &models.Category{ID: "c1", Name: "Work", XPMultiplier: 1.2}
	require.NoError(t, s.Categories().Upsert(ctx, cat))

	err := s.Tasks().Create(ctx, &models.Task{ID: "t0", UserID: "u1", CategoryID: "missing"})
	assert.ErrorIs(t, err, models.ErrInvalidReference)

	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, s.Tasks().Create(ctx, &models.Task{
			ID: id, UserID: "u1", CategoryID: "c1", Difficulty: models.DifficultyEasy,
			DueDate: &due, CreatedAt: created, UpdatedAt: created,
		}))
	}

	require.NoError(t, s.Tasks().MarkCompleted(ctx, "t1", created.Add(time.Hour)))
	assert.ErrorIs(t, s.Tasks().MarkCompleted(ctx, "t1", created.Add(2*time.Hour)), models.ErrTaskAlreadyCompleted)
	assert.ErrorIs(t, s.Tasks().MarkCompleted(ctx, "nope", created), models.ErrNotFound)

	task, err := s.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Work", task.Category.Name)
	assert.True(t, task.IsCompleted)

	completed, _ := s.Tasks().CountCompleted(ctx, "u1")
	beforeDue, _ := s.Tasks().CountCompletedBeforeDue(ctx, "u1")
	maxCat, _ := s.Tasks().MaxCompletedInCategory(ctx, "u1")
	all, _ := s.Tasks().CountAll(ctx, "u1")
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, beforeDue)
	assert.Equal(t, 1, maxCat)
	assert.Equal(t, 2, all)
}

func TestUnlockIsOncePerPair(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &models.Achievement{ID: "a1", Name: "First Steps", AchievementType: models.AchievementTaskCount, Threshold: 1, IsActive: true}
	require.NoError(t, s.Achievements().Upsert(ctx, a))

	ua := &models.UserAchievement{ID: "ua1", UserID: "u1", AchievementID: "a1"}
	require.NoError(t, s.Achievements().Unlock(ctx, ua))
	assert.ErrorIs(t, s.Achievements().Unlock(ctx, &models.UserAchievement{ID: "ua2", UserID: "u1", AchievementID: "a1"}), models.ErrAlreadyUnlocked)

	locked, err := s.Achievements().ListLocked(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, locked)

	unlocked, err := s.Achievements().ListUnlocked(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "First Steps", unlocked[0].Achievement.Name)
}

func TestSettingKeepsDescription(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Settings().Set(ctx, &models.SystemSetting{Key: "k", Value: "1", DataType: models.SettingInteger, Description: "counter"}))
	require.NoError(t, s.Settings().Set(ctx, &models.SystemSetting{Key: "k", Value: "2", DataType: models.SettingInteger}))

	got, err := s.Settings().Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", got.Value)
	assert.Equal(t, "counter", got.Description)
}
