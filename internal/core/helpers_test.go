package core

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskquest/internal/repository/memstore"
	"taskquest/pkg/models"
)

// Monday 2 March 2026, mid-morning UTC
var baseTime = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx           context.Context
	store         *memstore.Store
	clock         *FixedClock
	engine        GamificationEngine
	notifications NotificationService
	missions      MissionService
	tasks         TaskService
	leaderboards  LeaderboardService
	category      *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memstore.New(),
		clock: NewFixedClock(baseTime),
	}
	f.engine = NewGamificationEngine(f.store, f.clock, time.UTC)
	f.notifications = NewNotificationService(f.store, f.clock)
	f.missions = NewMissionService(f.store, f.engine, f.notifications, rand.New(rand.NewSource(7)))
	f.tasks = NewTaskService(f.store, f.engine, f.missions, f.notifications, NewLocalLocker(time.Second))
	f.leaderboards = NewLeaderboardService(f.store, f.clock)
	f.category = f.addCategory(t, "Work", 1.0)
	return f
}

func (f *fixture) addCategory(t *testing.T, name string, multiplier float64) *models.Category {
	t.Helper()
	c := &models.Category{ID: uuid.New().String(), Name: name, Color: "#007bff", XPMultiplier: multiplier, CreatedAt: baseTime}
	require.NoError(t, f.store.Categories().Upsert(f.ctx, c))
	return c
}

func (f *fixture) addUser(t *testing.T, id string) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.store.Users().Create(f.ctx, &models.User{
		ID: id, Username: "user-" + id, Role: models.UserRoleUser, LastLoginAt: &now, CreatedAt: now,
	}))
}

// addTask stores an open task created age before the clock's now
func (f *fixture) addTask(t *testing.T, userID string, d models.Difficulty, age time.Duration, due *time.Time) *models.Task {
	t.Helper()
	return f.addTaskIn(t, userID, f.category, d, age, due)
}

func (f *fixture) addTaskIn(t *testing.T, userID string, c *models.Category, d models.Difficulty, age time.Duration, due *time.Time) *models.Task {
	t.Helper()
	created := f.clock.Now().Add(-age)
	task := &models.Task{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      "task",
		CategoryID: c.ID,
		Difficulty: d,
		Priority:   models.PriorityMedium,
		DueDate:    due,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, f.store.Tasks().Create(f.ctx, task))
	stored, err := f.store.Tasks().GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	return stored
}

// completeAt stores a task already completed at the given instant
func (f *fixture) completeAt(t *testing.T, userID string, c *models.Category, created time.Time, due *time.Time, at time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      "done",
		CategoryID: c.ID,
		Difficulty: models.DifficultyMedium,
		Priority:   models.PriorityMedium,
		DueDate:    due,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, f.store.Tasks().Create(f.ctx, task))
	require.NoError(t, f.store.Tasks().MarkCompleted(f.ctx, task.ID, at))
	stored, err := f.store.Tasks().GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	return stored
}

func (f *fixture) addAchievement(t *testing.T, name string, kind models.AchievementType, threshold, reward int) *models.Achievement {
	t.Helper()
	a := &models.Achievement{
		ID: uuid.New().String(), Name: name, AchievementType: kind,
		Threshold: threshold, XPReward: reward, IsActive: true, CreatedAt: baseTime,
	}
	require.NoError(t, f.store.Achievements().Upsert(f.ctx, a))
	return a
}

func (f *fixture) addTemplate(t *testing.T, name string, kind models.MissionType, target, reward int, minLevel int) *models.MissionTemplate {
	t.Helper()
	tpl := &models.MissionTemplate{
		ID: uuid.New().String(), Name: name, MissionType: kind, Difficulty: models.MissionEasy,
		TargetValue: target, DurationDays: 3, XPReward: reward, BonusMultiplier: 1.0,
		MinUserLevel: minLevel, IsActive: true, IsRepeatable: true, Weight: 1, CreatedAt: baseTime,
	}
	require.NoError(t, f.store.Missions().UpsertTemplate(f.ctx, tpl))
	return tpl
}

// addDailyTemplate stores a one-day template, the only kind daily assignment draws from
func (f *fixture) addDailyTemplate(t *testing.T, name string, kind models.MissionType, target, reward int, minLevel int) *models.MissionTemplate {
	t.Helper()
	tpl := f.addTemplate(t, name, kind, target, reward, minLevel)
	tpl.DurationDays = 1
	require.NoError(t, f.store.Missions().UpsertTemplate(f.ctx, tpl))
	return tpl
}

func (f *fixture) profile(t *testing.T, userID string) *models.ProgressProfile {
	t.Helper()
	p, err := f.store.Profiles().Get(f.ctx, userID)
	require.NoError(t, err)
	return p
}

// ledgerTotal sums every ledger entry of userID
func (f *fixture) ledgerTotal(userID string) int {
	total := 0
	for _, l := range f.store.AllXPLogs() {
		if l.UserID == userID {
			total += l.XPEarned
		}
	}
	return total
}

func (f *fixture) logsOf(userID string, action models.XPAction) []models.XPLog {
	var out []models.XPLog
	for _, l := range f.store.AllXPLogs() {
		if l.UserID == userID && l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }
