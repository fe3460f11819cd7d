package core

import (
	"context"
	"fmt"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// Seeder installs the default catalogue. Every seed upserts by name, so reruns are safe.
type Seeder struct {
	store repository.Store
	clock Clock
}

// NewSeeder creates a seeder over store
func NewSeeder(store repository.Store, clock Clock) *Seeder {
	if clock == nil {
		clock = SystemClock()
	}
	return &Seeder{store: store, clock: clock}
}

// SeedAll installs categories, achievements and mission templates
func (s *Seeder) SeedAll(ctx context.Context) error {
	if _, err := s.SeedCategories(ctx); err != nil {
		return err
	}
	if _, err := s.SeedAchievements(ctx); err != nil {
		return err
	}
	_, err := s.SeedMissionTemplates(ctx)
	return err
}

// SeedCategories installs the default task categories and returns how many it wrote
func (s *Seeder) SeedCategories(ctx context.Context) (int, error) {
	now := s.clock.Now()
	for i, c := range DefaultCategories() {
		if err := utils.ValidateCategory(c); err != nil {
			return i, err
		}
		c.ID = utils.NewID()
		c.CreatedAt = now
		if err := s.store.Categories().Upsert(ctx, c); err != nil {
			return i, fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	n := len(DefaultCategories())
	logger.Infof("seeded %d categories", n)
	return n, nil
}

// SeedAchievements installs the default achievements and returns how many it wrote
func (s *Seeder) SeedAchievements(ctx context.Context) (int, error) {
	now := s.clock.Now()
	defaults := DefaultAchievements()
	for i, a := range defaults {
		a.ID = utils.NewID()
		a.IsActive = true
		a.CreatedAt = now
		if err := s.store.Achievements().Upsert(ctx, a); err != nil {
			return i, fmt.Errorf("failed to seed achievement %s: %w", a.Name, err)
		}
	}
	logger.Infof("seeded %d achievements", len(defaults))
	return len(defaults), nil
}

// SeedMissionTemplates installs the starter mission catalogue and returns how many it wrote
func (s *Seeder) SeedMissionTemplates(ctx context.Context) (int, error) {
	now := s.clock.Now()
	defaults := DefaultMissionTemplates()
	for i, t := range defaults {
		t.ID = utils.NewID()
		t.IsActive = true
		t.CreatedAt = now
		if err := s.store.Missions().UpsertTemplate(ctx, t); err != nil {
			return i, fmt.Errorf("failed to seed mission template %s: %w", t.Name, err)
		}
	}
	logger.Infof("seeded %d mission templates", len(defaults))
	return len(defaults), nil
}

// DefaultCategories returns fresh copies of the built-in categories
func DefaultCategories() []*models.Category {
	return []*models.Category{
		{Name: "Work", Description: "Professional and career-related tasks", Color: "#007bff", XPMultiplier: 1.2},
		{Name: "Personal", Description: "Personal development and life tasks", Color: "#28a745", XPMultiplier: 1.0},
		{Name: "Health & Fitness", Description: "Exercise, nutrition, and wellness tasks", Color: "#dc3545", XPMultiplier: 1.3},
		{Name: "Learning", Description: "Education, courses, and skill development", Color: "#ffc107", XPMultiplier: 1.4},
		{Name: "Social", Description: "Family, friends, and social activities", Color: "#17a2b8", XPMultiplier: 1.0},
		{Name: "Home", Description: "Household chores and maintenance", Color: "#6f42c1", XPMultiplier: 0.9},
		{Name: "Finance", Description: "Money management and financial planning", Color: "#fd7e14", XPMultiplier: 1.1},
		{Name: "Creative", Description: "Art, writing, music, and creative projects", Color: "#e83e8c", XPMultiplier: 1.2},
	}
}

func achievement(name, description string, kind models.AchievementType, icon string, threshold, reward int, hidden bool) *models.Achievement {
	return &models.Achievement{
		Name:            name,
		Description:     description,
		AchievementType: kind,
		Icon:            icon,
		Threshold:       threshold,
		XPReward:        reward,
		IsHidden:        hidden,
	}
}

// DefaultAchievements returns fresh copies of the built-in achievements
func DefaultAchievements() []*models.Achievement {
	return []*models.Achievement{
		achievement("First Steps", "Complete your first task", models.AchievementTaskCount, "🎯", 1, 25, false),
		achievement("Getting Started", "Complete 10 tasks", models.AchievementTaskCount, "📝", 10, 100, false),
		achievement("Task Master", "Complete 50 tasks", models.AchievementTaskCount, "⭐", 50, 250, false),
		achievement("Productivity Legend", "Complete 100 tasks", models.AchievementTaskCount, "🏆", 100, 500, false),
		achievement("Task Conqueror", "Complete 500 tasks", models.AchievementTaskCount, "👑", 500, 1000, true),

		achievement("Consistency", "Maintain a 3-day streak", models.AchievementStreak, "🔥", 3, 50, false),
		achievement("Weekly Warrior", "Maintain a 7-day streak", models.AchievementStreak, "🌟", 7, 150, false),
		achievement("Monthly Master", "Maintain a 30-day streak", models.AchievementStreak, "🎖️", 30, 500, false),
		achievement("Unstoppable", "Maintain a 100-day streak", models.AchievementStreak, "💎", 100, 1500, true),

		achievement("Level Up!", "Reach level 5", models.AchievementLevel, "🆙", 5, 100, false),
		achievement("Rising Star", "Reach level 10", models.AchievementLevel, "🌠", 10, 250, false),
		achievement("Expert Level", "Reach level 25", models.AchievementLevel, "🎓", 25, 750, false),
		achievement("Grandmaster", "Reach level 50", models.AchievementLevel, "🧙", 50, 2000, true),

		achievement("First Thousand", "Earn 1,000 XP", models.AchievementXP, "💰", 1000, 100, false),
		achievement("XP Collector", "Earn 5,000 XP", models.AchievementXP, "💎", 5000, 500, false),
		achievement("XP Millionaire", "Earn 10,000 XP", models.AchievementXP, "🏦", 10000, 1000, true),

		achievement("Category Specialist", "Complete 25 tasks in any single category", models.AchievementCategory, "🎯", 25, 200, false),
		achievement("Category Expert", "Complete 50 tasks in any single category", models.AchievementCategory, "🏅", 50, 400, false),
		achievement("Category Master", "Complete 100 tasks in any single category", models.AchievementCategory, "🎖️", 100, 800, true),

		achievement("Night Owl", "Complete a task after 10 PM", models.AchievementSpecial, "🦉", 1, 50, false),
		achievement("Early Bird", "Complete a task before 6 AM", models.AchievementSpecial, "🐦", 1, 50, false),
		achievement("Speed Demon", "Complete 10 tasks in a single day", models.AchievementSpecial, "⚡", 10, 200, false),
	}
}

func intPtr(v int) *int { return &v }

// DefaultMissionTemplates returns fresh copies of the starter mission catalogue
func DefaultMissionTemplates() []*models.MissionTemplate {
	tpl := func(name, description string, kind models.MissionType, difficulty models.MissionDifficulty, target, days, reward int, bonus float64, minLevel int, maxLevel *int, repeatable bool, weight int) *models.MissionTemplate {
		return &models.MissionTemplate{
			Name:            name,
			Description:     description,
			MissionType:     kind,
			Difficulty:      difficulty,
			TargetValue:     target,
			DurationDays:    days,
			XPReward:        reward,
			BonusMultiplier: bonus,
			MinUserLevel:    minLevel,
			MaxUserLevel:    maxLevel,
			IsRepeatable:    repeatable,
			Weight:          weight,
		}
	}
	return []*models.MissionTemplate{
		tpl("Daily Grind", "Complete 3 tasks today", models.MissionDailyGoal, models.MissionEasy, 3, 1, 30, 1.0, 1, nil, true, 10),
		tpl("Quick Wins", "Complete 2 tasks today", models.MissionTaskCount, models.MissionEasy, 2, 1, 20, 1.0, 1, nil, true, 9),
		tpl("XP Snack", "Earn 50 XP from tasks today", models.MissionXPTarget, models.MissionEasy, 50, 1, 25, 1.0, 1, nil, true, 7),
		tpl("Beat the Clock", "Finish a task on or before its due date today", models.MissionTiming, models.MissionEasy, 1, 1, 25, 1.0, 1, nil, true, 6),
		tpl("Hard Day's Work", "Complete a hard or expert task today", models.MissionHardTasks, models.MissionMedium, 1, 1, 40, 1.0, 2, nil, true, 5),
		tpl("Task Sprinter", "Complete 5 tasks", models.MissionTaskCount, models.MissionEasy, 5, 3, 50, 1.0, 1, nil, true, 8),
		tpl("Beginner's Path", "Complete your first 2 tasks", models.MissionTaskCount, models.MissionEasy, 2, 2, 20, 1.0, 1, intPtr(3), false, 6),
		tpl("Punctual Performer", "Finish 3 tasks on or before their due date", models.MissionTiming, models.MissionMedium, 3, 3, 60, 1.0, 1, nil, true, 6),
		tpl("Focused Mind", "Complete 4 tasks in one category", models.MissionCategoryFocus, models.MissionMedium, 4, 3, 60, 1.0, 2, nil, true, 5),
		tpl("XP Hunter", "Earn 150 XP from tasks", models.MissionXPTarget, models.MissionMedium, 150, 3, 75, 1.0, 2, nil, true, 5),
		tpl("Heavy Lifter", "Complete 2 hard or expert tasks", models.MissionHardTasks, models.MissionHard, 2, 5, 120, 1.2, 3, nil, true, 4),
		tpl("Streak Keeper", "Keep a 3-day streak going", models.MissionStreak, models.MissionMedium, 3, 4, 90, 1.0, 2, nil, true, 3),
		tpl("Weekly Challenge", "Complete 20 tasks this week", models.MissionWeeklyChallenge, models.MissionHard, 20, 7, 250, 1.5, 5, nil, true, 2),
		tpl("Legend's Trial", "Complete 5 expert-level challenges", models.MissionHardTasks, models.MissionLegendary, 5, 7, 500, 2.0, 10, nil, false, 1),
	}
}
