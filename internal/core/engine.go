// Package core holds the progression engine and the services composed around it.
// Services are protocol-agnostic: the HTTP API, the CLI and the maintenance job all call into this package.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// GamificationEngine is the per-user progression facade: XP, streaks, levels, achievements and reviews
type GamificationEngine interface {
	// WithStore returns an engine bound to tx so its writes join the caller's transaction
	WithStore(tx repository.Store) GamificationEngine

	EnsureProfile(ctx context.Context, userID string) (*models.ProgressProfile, error)
	ProfileSummary(ctx context.Context, userID string) (*models.ProfileSummary, error)

	CalculateTaskXP(task *models.Task) int
	CanCompleteTask(task *models.Task) models.CompletionCheck
	AwardTaskXP(ctx context.Context, userID string, task *models.Task) (*models.AwardResult, error)
	AwardMissionXP(ctx context.Context, userID string, mission *models.UserMission) (*models.AwardResult, error)

	UpdateStreak(ctx context.Context, userID string) (int, error)
	RecalculateStreak(ctx context.Context, userID string) (*models.StreakSummary, error)

	CheckAllAchievements(ctx context.Context, userID string) ([]models.Achievement, error)
	CheckLevelAchievements(ctx context.Context, userID string, oldLevel, newLevel int) ([]models.Achievement, error)
	GetAchievementProgress(ctx context.Context, userID string) ([]models.AchievementProgress, error)

	GenerateWeeklyReview(ctx context.Context, userID string) (*models.WeeklyReview, error)
	ListWeeklyReviews(ctx context.Context, userID string, limit int) ([]*models.WeeklyReview, error)
	XPHistory(ctx context.Context, userID string, limit int) ([]*models.XPLog, error)

	Now() time.Time
	Location() *time.Location
}

type gamificationEngine struct {
	store repository.Store
	clock Clock
	loc   *time.Location
}

// NewGamificationEngine creates the engine. A nil clock means wall time and a nil location means UTC.
func NewGamificationEngine(store repository.Store, clock Clock, loc *time.Location) GamificationEngine {
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &gamificationEngine{store: store, clock: clock, loc: loc}
}

func (e *gamificationEngine) WithStore(tx repository.Store) GamificationEngine {
	return &gamificationEngine{store: tx, clock: e.clock, loc: e.loc}
}

func (e *gamificationEngine) Now() time.Time           { return e.clock.Now() }
func (e *gamificationEngine) Location() *time.Location { return e.loc }

// today is the current calendar day in the engine's timezone
func (e *gamificationEngine) today(now time.Time) time.Time {
	return utils.CivilDate(now, e.loc)
}

// progression carries one user's profile through a single transaction.
// Every step mutates the same in-memory profile; it is written once when the transaction ends.
type progression struct {
	e        *gamificationEngine
	tx       repository.Store
	profile  *models.ProgressProfile
	now      time.Time
	unlocked []models.Achievement
}

// run ensures the profile, hands it to fn, then persists it, all in one transaction
func (e *gamificationEngine) run(ctx context.Context, userID string, fn func(p *progression) error) (*progression, error) {
	var out *progression
	err := e.store.WithTransaction(ctx, func(tx repository.Store) error {
		now := e.clock.Now()
		profile, err := tx.Profiles().Ensure(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}
		p := &progression{e: e, tx: tx, profile: profile, now: now}
		if err := fn(p); err != nil {
			return err
		}
		profile.UpdatedAt = now
		if err := tx.Profiles().Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// addXP appends a ledger entry and adds the same amount to the cached total
func (p *progression) addXP(ctx context.Context, action models.XPAction, amount int, taskID *string, description string) error {
	entry := &models.XPLog{
		ID:          utils.NewID(),
		UserID:      p.profile.UserID,
		Action:      action,
		XPEarned:    amount,
		TaskID:      taskID,
		Description: description,
		CreatedAt:   p.now,
	}
	if err := p.tx.XPLogs().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to log xp: %w", err)
	}
	p.profile.TotalXP += amount
	logger.XP(p.profile.UserID, string(action), amount)
	return nil
}

// updateLevel re-derives the level from total XP and runs level achievements on a level-up
func (p *progression) updateLevel(ctx context.Context) error {
	old := p.profile.CurrentLevel
	level := models.LevelForXP(p.profile.TotalXP)
	p.profile.CurrentLevel = level
	if level > old {
		logger.WithFields(map[string]interface{}{
			"component": "engine",
			"user_id":   p.profile.UserID,
			"from":      old,
			"to":        level,
		}).Info("level up")
		return p.checkLevelAchievements(ctx, old, level)
	}
	return nil
}

// EnsureProfile creates the default profile on first use and returns the stored one
func (e *gamificationEngine) EnsureProfile(ctx context.Context, userID string) (*models.ProgressProfile, error) {
	profile, err := e.store.Profiles().Ensure(ctx, userID, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return profile, nil
}

// ProfileSummary returns the profile with its derived level views
func (e *gamificationEngine) ProfileSummary(ctx context.Context, userID string) (*models.ProfileSummary, error) {
	profile, err := e.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Summary(), nil
}

func (e *gamificationEngine) CalculateTaskXP(task *models.Task) int {
	return CalculateTaskXP(task, e.clock.Now())
}

func (e *gamificationEngine) CanCompleteTask(task *models.Task) models.CompletionCheck {
	return CanCompleteTask(task, e.clock.Now())
}

// AwardTaskXP runs the completion pipeline: XP, streak, ledger, counters, level, achievements.
// A task still inside its minimum dwell time is refused with Awarded=false and no XP written.
func (e *gamificationEngine) AwardTaskXP(ctx context.Context, userID string, task *models.Task) (*models.AwardResult, error) {
	result := &models.AwardResult{}

	_, err := e.run(ctx, userID, func(p *progression) error {
		check := CanCompleteTask(task, p.now)
		if !check.Allowed {
			result.Message = check.Message
			result.LevelBefore = p.profile.CurrentLevel
			result.LevelAfter = p.profile.CurrentLevel
			result.TotalXP = p.profile.TotalXP
			result.CurrentStreak = p.profile.CurrentStreak
			return nil
		}

		xp := CalculateTaskXP(task, p.now)
		status := TimingStatus(task, p.now)
		result.LevelBefore = p.profile.CurrentLevel

		bonus, err := p.updateStreak(ctx)
		if err != nil {
			return err
		}

		description := fmt.Sprintf("Completed %s task in %s (%s)", task.Difficulty, task.Category.Name, status)
		if err := p.addXP(ctx, models.ActionTaskComplete, xp, &task.ID, description); err != nil {
			return err
		}

		completedAt := p.now
		if task.CompletedAt != nil {
			completedAt = *task.CompletedAt
		}
		switch bucketFor(task, completedAt) {
		case bucketEarly:
			p.profile.TotalEarlyCompletions++
		case bucketOnTime:
			p.profile.TotalOnTimeCompletions++
		case bucketLate:
			p.profile.TotalLateCompletions++
		}

		if err := p.updateLevel(ctx); err != nil {
			return err
		}
		if err := p.checkAll(ctx); err != nil {
			return err
		}

		result.Awarded = true
		result.XPEarned = xp + bonus
		result.StreakBonus = bonus
		result.TimingStatus = status
		result.Message = fmt.Sprintf("Task completed! Earned %d XP (%s)", xp+bonus, status)
		result.LevelAfter = p.profile.CurrentLevel
		result.Unlocked = p.unlocked
		result.TotalXP = p.profile.TotalXP
		result.CurrentStreak = p.profile.CurrentStreak
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to award task xp: %w", err)
	}
	return result, nil
}

// AwardMissionXP credits a completed mission's reward
func (e *gamificationEngine) AwardMissionXP(ctx context.Context, userID string, mission *models.UserMission) (*models.AwardResult, error) {
	if mission.Status != models.MissionCompleted {
		return nil, models.ErrMissionNotActive
	}
	result := &models.AwardResult{}
	_, err := e.run(ctx, userID, func(p *progression) error {
		result.LevelBefore = p.profile.CurrentLevel
		xp := mission.RewardXP()
		if err := p.addXP(ctx, models.ActionMissionComplete, xp, nil, "Mission: "+mission.Title); err != nil {
			return err
		}
		if err := p.updateLevel(ctx); err != nil {
			return err
		}
		if err := p.checkAll(ctx); err != nil {
			return err
		}
		result.Awarded = true
		result.XPEarned = xp
		result.Message = fmt.Sprintf("Mission completed! Earned %d XP", xp)
		result.LevelAfter = p.profile.CurrentLevel
		result.Unlocked = p.unlocked
		result.TotalXP = p.profile.TotalXP
		result.CurrentStreak = p.profile.CurrentStreak
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to award mission xp: %w", err)
	}
	return result, nil
}

// XPHistory lists the user's newest ledger entries
func (e *gamificationEngine) XPHistory(ctx context.Context, userID string, limit int) ([]*models.XPLog, error) {
	logs, err := e.store.XPLogs().ListByUser(ctx, userID, utils.ValidateLimit(limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to list xp history: %w", err)
	}
	return logs, nil
}

func isAlreadyUnlocked(err error) bool {
	return errors.Is(err, models.ErrAlreadyUnlocked)
}
