package core

import (
	"context"
	"fmt"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// progressFunc measures the metric an achievement type is compared against
type progressFunc func(ctx context.Context, tx repository.Store, profile *models.ProgressProfile) (int, error)

var achievementProgress = map[models.AchievementType]progressFunc{
	models.AchievementTaskCount: func(ctx context.Context, tx repository.Store, p *models.ProgressProfile) (int, error) {
		return tx.Tasks().CountCompleted(ctx, p.UserID)
	},
	models.AchievementStreak: func(_ context.Context, _ repository.Store, p *models.ProgressProfile) (int, error) {
		return p.LongestStreak, nil
	},
	models.AchievementLevel: func(_ context.Context, _ repository.Store, p *models.ProgressProfile) (int, error) {
		return p.CurrentLevel, nil
	},
	models.AchievementXP: func(_ context.Context, _ repository.Store, p *models.ProgressProfile) (int, error) {
		return p.TotalXP, nil
	},
	models.AchievementCategory: func(ctx context.Context, tx repository.Store, p *models.ProgressProfile) (int, error) {
		return tx.Tasks().MaxCompletedInCategory(ctx, p.UserID)
	},
	models.AchievementTiming: func(ctx context.Context, tx repository.Store, p *models.ProgressProfile) (int, error) {
		return tx.Tasks().CountCompletedBeforeDue(ctx, p.UserID)
	},
}

// progressFor returns the user's standing for a; special achievements are granted manually and report 0
func progressFor(ctx context.Context, tx repository.Store, profile *models.ProgressProfile, a *models.Achievement) (int, error) {
	fn, ok := achievementProgress[a.AchievementType]
	if !ok {
		return 0, nil
	}
	return fn(ctx, tx, profile)
}

// unlock records the achievement, pays its reward and re-derives the level.
// It reports false when the pair was already unlocked.
func (p *progression) unlock(ctx context.Context, a *models.Achievement, progress int) (bool, error) {
	err := p.tx.Achievements().Unlock(ctx, &models.UserAchievement{
		ID:            utils.NewID(),
		UserID:        p.profile.UserID,
		AchievementID: a.ID,
		Progress:      progress,
		UnlockedAt:    p.now,
	})
	if isAlreadyUnlocked(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}

	p.unlocked = append(p.unlocked, *a)
	if a.XPReward > 0 {
		if err := p.addXP(ctx, models.ActionAchievement, a.XPReward, nil, "Unlocked achievement: "+a.Name); err != nil {
			return false, err
		}
	}
	if err := p.updateLevel(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// checkAll unlocks every locked achievement whose threshold is met.
// An unlock can raise XP or level enough to satisfy another, so passes repeat until one unlocks nothing.
func (p *progression) checkAll(ctx context.Context) error {
	for {
		locked, err := p.tx.Achievements().ListLocked(ctx, p.profile.UserID)
		if err != nil {
			return fmt.Errorf("failed to list locked achievements: %w", err)
		}

		progressed := false
		for _, a := range locked {
			progress, err := progressFor(ctx, p.tx, p.profile, a)
			if err != nil {
				return fmt.Errorf("failed to measure %s progress: %w", a.AchievementType, err)
			}
			if a.AchievementType == models.AchievementSpecial || progress < a.Threshold {
				continue
			}
			ok, err := p.unlock(ctx, a, progress)
			if err != nil {
				return err
			}
			progressed = progressed || ok
		}
		if !progressed {
			return nil
		}
	}
}

// checkLevelAchievements unlocks level achievements with thresholds in (oldLevel, newLevel]
func (p *progression) checkLevelAchievements(ctx context.Context, oldLevel, newLevel int) error {
	locked, err := p.tx.Achievements().ListLockedLevel(ctx, p.profile.UserID, oldLevel, newLevel)
	if err != nil {
		return fmt.Errorf("failed to list level achievements: %w", err)
	}
	for _, a := range locked {
		if _, err := p.unlock(ctx, a, newLevel); err != nil {
			return err
		}
	}
	return nil
}

// CheckAllAchievements evaluates every locked achievement and returns the ones unlocked now
func (e *gamificationEngine) CheckAllAchievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	p, err := e.run(ctx, userID, func(p *progression) error {
		return p.checkAll(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check achievements: %w", err)
	}
	return p.unlocked, nil
}

// CheckLevelAchievements unlocks the level achievements crossed between two levels
func (e *gamificationEngine) CheckLevelAchievements(ctx context.Context, userID string, oldLevel, newLevel int) ([]models.Achievement, error) {
	if newLevel <= oldLevel {
		return nil, nil
	}
	p, err := e.run(ctx, userID, func(p *progression) error {
		return p.checkLevelAchievements(ctx, oldLevel, newLevel)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check level achievements: %w", err)
	}
	return p.unlocked, nil
}

// GetAchievementProgress lists visible achievements with the user's standing on each.
// Hidden achievements appear only once unlocked.
func (e *gamificationEngine) GetAchievementProgress(ctx context.Context, userID string) ([]models.AchievementProgress, error) {
	profile, err := e.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := e.store.Achievements().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	unlocked, err := e.store.Achievements().ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	unlockedAt := make(map[string]*models.UserAchievement, len(unlocked))
	for _, ua := range unlocked {
		unlockedAt[ua.AchievementID] = ua
	}

	out := make([]models.AchievementProgress, 0, len(all))
	for _, a := range all {
		ua, done := unlockedAt[a.ID]
		if a.IsHidden && !done {
			continue
		}
		progress, err := progressFor(ctx, e.store, profile, a)
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s progress: %w", a.AchievementType, err)
		}
		item := models.AchievementProgress{Achievement: a, Progress: progress, Unlocked: done}
		if done {
			at := ua.UnlockedAt
			item.UnlockedAt = &at
			item.Progress = max(progress, ua.Progress)
		}
		out = append(out, item)
	}
	return out, nil
}
