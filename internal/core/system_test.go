package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/pkg/models"
)

func TestRunDailyMaintenance(t *testing.T) {
	f := newFixture(t)
	system := NewSystemService(f.store, f.engine, f.leaderboards, f.missions, f.notifications)

	open := f.addDailyTemplate(t, "Open", models.MissionTaskCount, 3, 20, 1)
	f.addDailyTemplate(t, "Second", models.MissionDailyGoal, 2, 20, 1)
	f.addDailyTemplate(t, "Third", models.MissionTiming, 1, 20, 1)
	f.addAchievement(t, "First Steps", models.AchievementTaskCount, 1, 25)

	f.clock.Set(baseTime.AddDate(0, 0, -40))
	_, err := f.notifications.Create(f.ctx, "u1", models.NotificationSystem, "Welcome", "hello", nil)
	require.NoError(t, err)

	f.clock.Set(baseTime.AddDate(0, 0, -4))
	_, err = f.missions.AcceptMission(f.ctx, "u2", open.ID)
	require.NoError(t, err)

	f.clock.Set(baseTime)
	f.addUser(t, "u1")
	stale := baseTime.AddDate(0, 0, -10)
	require.NoError(t, f.store.Users().Create(f.ctx, &models.User{
		ID: "u2", Username: "user-u2", Role: models.UserRoleUser, LastLoginAt: &stale, CreatedAt: stale,
	}))
	f.completeAt(t, "u1", f.category, baseTime.Add(-3*time.Hour), nil, baseTime.Add(-time.Hour))

	result, err := system.RunDailyMaintenance(f.ctx)
	require.NoError(t, err)
	assert.True(t, result.LeaderboardsUpdated)
	assert.Equal(t, 3, result.MissionsAssigned)
	assert.Equal(t, 1, result.AchievementsChecked)
	assert.Equal(t, 1, result.MissionsExpired)
	assert.Equal(t, 1, result.NotificationsCleaned)
	assert.Empty(t, result.Failures)
	assert.Empty(t, result.Error)

	assert.Equal(t, 25, f.profile(t, "u1").TotalXP)

	board, err := f.leaderboards.GetLeaderboard(f.ctx, models.PeriodDaily, 0)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "u1", board[0].UserID)

	setting, err := system.GetSetting(f.ctx, SettingLastMaintenanceRun)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02T10:00:00Z", setting.Value)
	assert.Equal(t, models.SettingString, setting.DataType)

	// a second run the same day hands out nothing new
	again, err := system.RunDailyMaintenance(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, again.MissionsAssigned)
	assert.Equal(t, 0, again.MissionsExpired)
	active := models.MissionActive
	missions, err := f.missions.GetUserMissions(f.ctx, "u1", models.MissionFilter{Status: &active})
	require.NoError(t, err)
	assert.Len(t, missions, 3)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	system := NewSystemService(f.store, f.engine, f.leaderboards, f.missions, f.notifications)

	_, err := system.SetSetting(f.ctx, "", 1, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = system.GetSetting(f.ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = system.SetSetting(f.ctx, "max_daily_missions", 5, "Cap on daily missions")
	require.NoError(t, err)
	_, err = system.SetSetting(f.ctx, "max_daily_missions", 4, "")
	require.NoError(t, err)

	setting, err := system.GetSetting(f.ctx, "max_daily_missions")
	require.NoError(t, err)
	assert.Equal(t, models.SettingInteger, setting.DataType)
	assert.Equal(t, "Cap on daily missions", setting.Description)
	assert.Equal(t, baseTime, setting.UpdatedAt)
	v, err := setting.TypedValue()
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}
