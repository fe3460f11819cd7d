package core

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

func TestMissionTarget(t *testing.T) {
	tests := []struct {
		name  string
		base  int
		level int
		rate  float64
		want  int
	}{
		{"neutral", 5, 1, 0.5, 5},
		{"higher level and reliable", 10, 3, 1.0, 18},
		{"unreliable newcomer", 4, 1, 0.0, 2},
		{"floors at one", 1, 1, 0.0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missionTarget(tt.base, tt.level, tt.rate))
		})
	}
}

func TestAssignDailyMissionsIsIdempotentPerDay(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		f.addDailyTemplate(t, name, models.MissionTaskCount, 3, 20, 1)
	}
	f.addDailyTemplate(t, "too advanced", models.MissionTaskCount, 3, 20, 4)
	f.addTemplate(t, "three days", models.MissionTaskCount, 3, 20, 1)

	first, err := f.missions.AssignDailyMissions(f.ctx, "u1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(first), 3)
	require.LessOrEqual(t, len(first), 5)

	templates := map[string]bool{}
	var firstIDs []string
	for _, m := range first {
		assert.NotEqual(t, "too advanced", m.Title)
		assert.NotEqual(t, "three days", m.Title)
		assert.Equal(t, models.CadenceDaily, m.Cadence)
		assert.Equal(t, models.MissionActive, m.Status)
		assert.Equal(t, 3, m.TargetValue)
		assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), m.EndDate)
		assert.False(t, templates[m.TemplateID], "template drawn twice")
		templates[m.TemplateID] = true
		firstIDs = append(firstIDs, m.ID)
	}

	f.clock.Advance(3 * time.Hour)
	second, err := f.missions.AssignDailyMissions(f.ctx, "u1")
	require.NoError(t, err)
	var secondIDs []string
	for _, m := range second {
		secondIDs = append(secondIDs, m.ID)
	}
	assert.ElementsMatch(t, firstIDs, secondIDs)

	f.clock.Advance(24 * time.Hour)
	next, err := f.missions.AssignDailyMissions(f.ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, next)
	for _, m := range next {
		assert.NotContains(t, firstIDs, m.ID)
	}
}

func TestAssignDailyMissionsFromDefaultCatalogue(t *testing.T) {
	f := newFixture(t)
	_, err := NewSeeder(f.store, f.clock).SeedMissionTemplates(f.ctx)
	require.NoError(t, err)

	p, err := f.store.Profiles().Ensure(f.ctx, "veteran", baseTime)
	require.NoError(t, err)
	p.TotalXP, p.CurrentLevel = models.CalculateXPForLevel(10), 10
	require.NoError(t, f.store.Profiles().Update(f.ctx, p))

	daily := map[string]bool{}
	for _, tpl := range DefaultMissionTemplates() {
		daily[tpl.Name] = tpl.IsDaily()
	}
	tomorrow := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	for _, user := range []string{"newcomer", "veteran"} {
		missions, err := f.missions.AssignDailyMissions(f.ctx, user)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(missions), 3, user)
		for _, m := range missions {
			assert.True(t, daily[m.Title], "%s drew multi-day template %q", user, m.Title)
			assert.Equal(t, tomorrow, m.EndDate)
		}
	}

	// multi-day goals cannot finish before midnight
	for _, name := range []string{"Streak Keeper", "Weekly Challenge", "Heavy Lifter", "Legend's Trial"} {
		assert.False(t, daily[name], name)
	}
}

func TestAssignDailyMissionsLocksProfileBeforeCheckingToday(t *testing.T) {
	conn, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer conn.Close()

	store := repository.NewStore(conn)
	clock := NewFixedClock(baseTime)
	engine := NewGamificationEngine(store, clock, time.UTC)
	missions := NewMissionService(store, engine, NewNotificationService(store, clock), rand.New(rand.NewSource(1)))
	today := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	profileCols := []string{
		"user_id", "total_xp", "current_level", "current_streak", "longest_streak", "last_activity_date",
		"total_early_completions", "total_on_time_completions", "total_late_completions", "created_at", "updated_at",
	}
	missionCols := []string{
		"id", "user_id", "template_id", "title", "description", "mission_type", "cadence", "category_id",
		"target_value", "current_progress", "status", "xp_reward", "bonus_multiplier",
		"assigned_date", "start_date", "end_date", "completed_at", "created_at", "updated_at",
	}

	conn.ExpectBegin()
	conn.ExpectExec(`INSERT INTO progress_profiles`).
		WithArgs("u1", baseTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	conn.ExpectQuery(`FROM progress_profiles\s+WHERE user_id = \$1\s+FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow("u1", 0, 1, 0, 0, nil, 0, 0, 0, baseTime, baseTime))
	conn.ExpectQuery(`FROM user_missions WHERE user_id = \$1 AND cadence = \$2 AND assigned_date = \$3`).
		WithArgs("u1", "daily", today).
		WillReturnRows(pgxmock.NewRows(missionCols).AddRow(
			"m1", "u1", "t1", "Daily Grind", "", "daily_goal", "daily", nil,
			3, 0, "active", 30, 1.0,
			today, baseTime, today.AddDate(0, 0, 1), nil, baseTime, baseTime,
		))
	conn.ExpectCommit()

	assigned, err := missions.AssignDailyMissions(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "m1", assigned[0].ID)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestAssignDailyMissionsWithoutTemplates(t *testing.T) {
	f := newFixture(t)
	missions, err := f.missions.AssignDailyMissions(f.ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, missions)
}

func TestUpdateMissionProgressCapsAndCompletes(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Task Sprinter", models.MissionTaskCount, 3, 40, 1)

	accepted, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)
	require.True(t, accepted.Accepted)

	done, err := f.missions.UpdateMissionProgress(f.ctx, "u1", models.MissionTaskCount, 2)
	require.NoError(t, err)
	assert.Empty(t, done)

	done, err = f.missions.UpdateMissionProgress(f.ctx, "u1", models.MissionTaskCount, 5)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, 3, done[0].CurrentProgress)
	assert.Equal(t, models.MissionCompleted, done[0].Status)
	assert.NotNil(t, done[0].CompletedAt)

	stored, err := f.store.Missions().GetByID(f.ctx, accepted.Mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentProgress)
	assert.Equal(t, 40, f.profile(t, "u1").TotalXP)

	// completed missions no longer move
	done, err = f.missions.UpdateMissionProgress(f.ctx, "u1", models.MissionTaskCount, 1)
	require.NoError(t, err)
	assert.Empty(t, done)
	assert.Equal(t, 40, f.profile(t, "u1").TotalXP)

	var titles []string
	for _, n := range f.store.AllNotifications() {
		titles = append(titles, n.Title)
		if n.Type == models.NotificationMissionCompleted {
			assert.Equal(t, `You completed "Task Sprinter" and earned 40 XP!`, n.Message)
			assert.JSONEq(t, `{"mission_id":"`+accepted.Mission.ID+`","xp_earned":40}`, string(n.Data))
		}
	}
	assert.ElementsMatch(t, []string{"New Mission Accepted!", "Mission Completed!"}, titles)
}

func TestUpdateStreakProgressNeverLowersProgress(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Streak Keeper", models.MissionStreak, 4, 60, 1)
	accepted, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)

	done, err := f.missions.UpdateStreakProgress(f.ctx, "u1", 3)
	require.NoError(t, err)
	assert.Empty(t, done)

	done, err = f.missions.UpdateStreakProgress(f.ctx, "u1", 1)
	require.NoError(t, err)
	assert.Empty(t, done)
	stored, err := f.store.Missions().GetByID(f.ctx, accepted.Mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentProgress)

	done, err = f.missions.UpdateStreakProgress(f.ctx, "u1", 9)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, 4, done[0].CurrentProgress)
	assert.Equal(t, 60, f.profile(t, "u1").TotalXP)
}

func TestUpdateMissionProgressFailsExpiredMissions(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Task Sprinter", models.MissionTaskCount, 3, 40, 1)
	accepted, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)

	f.clock.Advance(4 * 24 * time.Hour)
	done, err := f.missions.UpdateMissionProgress(f.ctx, "u1", models.MissionTaskCount, 3)
	require.NoError(t, err)
	assert.Empty(t, done)

	stored, err := f.store.Missions().GetByID(f.ctx, accepted.Mission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionFailed, stored.Status)
	assert.Equal(t, 0, stored.CurrentProgress)

	notes := f.store.AllNotifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "Mission Failed", notes[1].Title)
	assert.Equal(t, `Mission "Task Sprinter" has expired.`, notes[1].Message)
}

func TestAcceptMissionRejections(t *testing.T) {
	f := newFixture(t)
	advanced := f.addTemplate(t, "Advanced", models.MissionTaskCount, 3, 40, 3)

	result, err := f.missions.AcceptMission(f.ctx, "u1", advanced.ID)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, "Insufficient level", result.Reason)

	beginner := f.addTemplate(t, "Beginner", models.MissionTaskCount, 3, 40, 1)
	beginner.MaxUserLevel = intPtr(1)
	require.NoError(t, f.store.Missions().UpsertTemplate(f.ctx, beginner))
	p, err := f.store.Profiles().Ensure(f.ctx, "u2", baseTime)
	require.NoError(t, err)
	p.TotalXP, p.CurrentLevel = 600, 3
	require.NoError(t, f.store.Profiles().Update(f.ctx, p))

	result, err = f.missions.AcceptMission(f.ctx, "u2", beginner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Level too high for this mission", result.Reason)

	open := f.addTemplate(t, "Open", models.MissionTaskCount, 3, 40, 1)
	for i := 0; i < MaxActiveMissions; i++ {
		result, err = f.missions.AcceptMission(f.ctx, "u3", open.ID)
		require.NoError(t, err)
		require.True(t, result.Accepted)
	}
	result, err = f.missions.AcceptMission(f.ctx, "u3", open.ID)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, "Maximum active missions reached", result.Reason)

	_, err = f.missions.AcceptMission(f.ctx, "u3", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcceptMissionSetsWindow(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Open", models.MissionTaskCount, 3, 40, 1)

	result, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)
	require.True(t, result.Accepted)
	assert.Equal(t, models.CadenceAccepted, result.Mission.Cadence)
	assert.Equal(t, baseTime.AddDate(0, 0, 3), result.Mission.EndDate)

	notes := f.store.AllNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, `You accepted the mission "Open". Complete it within 3 days!`, notes[0].Message)
}

func TestAbandonMission(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Open", models.MissionTaskCount, 3, 40, 1)
	result, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)

	_, err = f.missions.AbandonMission(f.ctx, "u2", result.Mission.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	m, err := f.missions.AbandonMission(f.ctx, "u1", result.Mission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionAbandoned, m.Status)

	_, err = f.missions.AbandonMission(f.ctx, "u1", result.Mission.ID)
	assert.ErrorIs(t, err, models.ErrMissionNotActive)
}

func TestFailExpiredMissions(t *testing.T) {
	f := newFixture(t)
	tpl := f.addTemplate(t, "Open", models.MissionTaskCount, 3, 40, 1)
	for _, user := range []string{"u1", "u2"} {
		_, err := f.missions.AcceptMission(f.ctx, user, tpl.ID)
		require.NoError(t, err)
	}

	n, err := f.missions.FailExpiredMissions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(72*time.Hour + time.Second)
	n, err = f.missions.FailExpiredMissions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	failed := models.MissionFailed
	missions, err := f.missions.GetUserMissions(f.ctx, "u1", models.MissionFilter{Status: &failed})
	require.NoError(t, err)
	assert.Len(t, missions, 1)
}

func TestAvailableMissions(t *testing.T) {
	f := newFixture(t)
	once := f.addTemplate(t, "Once", models.MissionTaskCount, 1, 10, 1)
	once.IsRepeatable = false
	require.NoError(t, f.store.Missions().UpsertTemplate(f.ctx, once))
	again := f.addTemplate(t, "Again", models.MissionTaskCount, 1, 10, 1)

	for _, tpl := range []*models.MissionTemplate{once, again} {
		_, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
		require.NoError(t, err)
	}
	_, err := f.missions.UpdateMissionProgress(f.ctx, "u1", models.MissionTaskCount, 1)
	require.NoError(t, err)

	available, err := f.missions.AvailableMissions(f.ctx, "u1")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, again.ID, available[0].ID)

	// a week later the one-off is offered again
	f.clock.Advance(8 * 24 * time.Hour)
	available, err = f.missions.AvailableMissions(f.ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestGenerateRandomMissions(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		f.addTemplate(t, name, models.MissionTaskCount, 1, 10, 1)
	}

	picked, err := f.missions.GenerateRandomMissions(f.ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, picked, 5)

	picked, err = f.missions.GenerateRandomMissions(f.ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, picked, 2)

	_, err = f.missions.GenerateRandomMissions(f.ctx, "u1", 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	active := models.MissionActive
	missions, err := f.missions.GetUserMissions(f.ctx, "u1", models.MissionFilter{Status: &active})
	require.NoError(t, err)
	assert.Empty(t, missions)
}

func TestUpdateCategoryProgressMatchesCategory(t *testing.T) {
	f := newFixture(t)
	home := f.addCategory(t, "Home", 0.9)
	tpl := f.addTemplate(t, "Home Focus", models.MissionCategoryFocus, 2, 10, 1)
	tpl.CategoryID = &home.ID
	require.NoError(t, f.store.Missions().UpsertTemplate(f.ctx, tpl))

	_, err := f.missions.AcceptMission(f.ctx, "u1", tpl.ID)
	require.NoError(t, err)

	done, err := f.missions.UpdateCategoryProgress(f.ctx, "u1", f.category.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, done)

	done, err = f.missions.UpdateCategoryProgress(f.ctx, "u1", home.ID, 2)
	require.NoError(t, err)
	assert.Len(t, done, 1)
}
