package core

import (
	"context"
	"fmt"
	"strings"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// XPPreview is what completing a task right now would yield
type XPPreview struct {
	TaskID       string                 `json:"task_id"`
	XP           int                    `json:"xp"`
	TimingStatus string                 `json:"timing_status"`
	Check        models.CompletionCheck `json:"can_complete"`
}

// TaskService owns task creation and the completion flow that feeds progression
type TaskService interface {
	CreateTask(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string, completed *bool, limit, offset int) ([]*models.Task, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	PreviewXP(ctx context.Context, userID, taskID string) (*XPPreview, error)
	CompleteTask(ctx context.Context, userID, taskID string) (*models.AwardResult, error)
}

type taskService struct {
	store         repository.Store
	engine        GamificationEngine
	missions      MissionService
	notifications NotificationService
	locker        Locker
}

// NewTaskService creates a new task service
func NewTaskService(store repository.Store, engine GamificationEngine, missions MissionService, notifications NotificationService, locker Locker) TaskService {
	if locker == nil {
		locker = NewLocalLocker(0)
	}
	return &taskService{
		store:         store,
		engine:        engine,
		missions:      missions,
		notifications: notifications,
		locker:        locker,
	}
}

func (s *taskService) CreateTask(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.engine.Now()
	if req.DueDate != nil && !req.DueDate.After(now) {
		return nil, fmt.Errorf("due date must be in the future: %w", models.ErrInvalidInput)
	}

	task := &models.Task{
		ID:          utils.NewID(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Difficulty:  req.Difficulty,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.store.Tasks().GetByID(ctx, task.ID)
}

// GetTask returns the task when userID owns it; other users' tasks read as not found
func (s *taskService) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.store.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("failed to get task: %w", models.ErrNotFound)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, userID string, completed *bool, limit, offset int) ([]*models.Task, error) {
	if offset < 0 {
		offset = 0
	}
	tasks, err := s.store.Tasks().ListByUser(ctx, userID, completed, utils.ValidateLimit(limit, 20, 100), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *taskService) PreviewXP(ctx context.Context, userID, taskID string) (*XPPreview, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()
	return &XPPreview{
		TaskID:       task.ID,
		XP:           CalculateTaskXP(task, now),
		TimingStatus: TimingStatus(task, now),
		Check:        CanCompleteTask(task, now),
	}, nil
}

// CompleteTask marks the task done and runs the whole reward flow in one transaction:
// XP, streak, level, achievements, mission progress and notifications.
// A task still inside its minimum dwell time stays open and comes back with Awarded=false.
func (s *taskService) CompleteTask(ctx context.Context, userID, taskID string) (*models.AwardResult, error) {
	release, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *models.AwardResult
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		engine := s.engine.WithStore(tx)
		now := engine.Now()

		task, err := tx.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.UserID != userID {
			return models.ErrNotFound
		}
		if task.IsCompleted {
			return models.ErrTaskAlreadyCompleted
		}
		if check := CanCompleteTask(task, now); !check.Allowed {
			result = &models.AwardResult{Message: check.Message}
			return nil
		}

		if err := tx.Tasks().MarkCompleted(ctx, task.ID, now); err != nil {
			return err
		}
		task.IsCompleted = true
		task.CompletedAt = &now

		result, err = engine.AwardTaskXP(ctx, userID, task)
		if err != nil {
			return err
		}

		done, err := s.fanOut(ctx, tx, userID, task, result.XPEarned)
		if err != nil {
			return err
		}
		for _, m := range done {
			result.MissionsDone = append(result.MissionsDone, *m)
		}

		if err := notifyProgress(ctx, s.notifications.WithStore(tx), userID, result); err != nil {
			return err
		}

		profile, err := tx.Profiles().Get(ctx, userID)
		if err != nil {
			return err
		}
		result.TotalXP = profile.TotalXP
		result.CurrentStreak = profile.CurrentStreak
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	if result.Awarded {
		logger.WithRequestID(ctx).
			With("user_id", userID).
			With("task_id", taskID).
			With("xp", result.XPEarned).
			Info("task completed")
	}
	return result, nil
}

// fanOut advances the missions a completion counts toward and returns the ones it finished
func (s *taskService) fanOut(ctx context.Context, tx repository.Store, userID string, task *models.Task, xp int) ([]*models.UserMission, error) {
	missions := s.missions.WithStore(tx)

	type step struct {
		kind  models.MissionType
		value int
	}
	steps := []step{
		{models.MissionTaskCount, 1},
		{models.MissionXPTarget, xp},
		{models.MissionDailyGoal, 1},
	}
	if task.Difficulty == models.DifficultyHard || task.Difficulty == models.DifficultyExpert {
		steps = append(steps, step{models.MissionHardTasks, 1})
	}
	if task.CompletedEarlyOrOnTime() {
		steps = append(steps, step{models.MissionTiming, 1})
	}
	steps = append(steps, step{models.MissionWeeklyChallenge, 1})

	var done []*models.UserMission
	for _, st := range steps {
		completed, err := missions.UpdateMissionProgress(ctx, userID, st.kind, st.value)
		if err != nil {
			return nil, err
		}
		done = append(done, completed...)
	}
	completed, err := missions.UpdateCategoryProgress(ctx, userID, task.CategoryID, 1)
	if err != nil {
		return nil, err
	}
	done = append(done, completed...)

	profile, err := tx.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read streak: %w", err)
	}
	completed, err = missions.UpdateStreakProgress(ctx, userID, profile.CurrentStreak)
	if err != nil {
		return nil, err
	}
	return append(done, completed...), nil
}

// notifyProgress tells the user about achievements and level-ups an award produced
func notifyProgress(ctx context.Context, notifications NotificationService, userID string, result *models.AwardResult) error {
	for _, a := range result.Unlocked {
		_, err := notifications.Create(ctx, userID, models.NotificationAchievementUnlocked,
			"Achievement Unlocked!",
			fmt.Sprintf("You unlocked %q and earned %d XP!", a.Name, a.XPReward),
			map[string]interface{}{"achievement_id": a.ID, "xp_reward": a.XPReward})
		if err != nil {
			return err
		}
	}
	if result.LeveledUp() {
		_, err := notifications.Create(ctx, userID, models.NotificationLevelUp,
			"Level Up!",
			fmt.Sprintf("You reached level %d!", result.LevelAfter),
			map[string]interface{}{"level": result.LevelAfter, "previous_level": result.LevelBefore})
		if err != nil {
			return err
		}
	}
	return nil
}
