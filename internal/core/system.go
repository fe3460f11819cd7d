package core

import (
	"context"
	"fmt"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

const (
	// SettingLastMaintenanceRun holds the RFC 3339 time of the last maintenance run
	SettingLastMaintenanceRun = "last_maintenance_run"

	activeUserWindow      = 7 * 24 * time.Hour
	notificationRetention = 30 * 24 * time.Hour
)

// SystemService runs the daily batch and manages typed settings
type SystemService interface {
	RunDailyMaintenance(ctx context.Context) (*models.MaintenanceResult, error)
	GetSetting(ctx context.Context, key string) (*models.SystemSetting, error)
	SetSetting(ctx context.Context, key string, value interface{}, description string) (*models.SystemSetting, error)
}

type systemService struct {
	store         repository.Store
	engine        GamificationEngine
	leaderboards  LeaderboardService
	missions      MissionService
	notifications NotificationService
}

// NewSystemService creates a new system service
func NewSystemService(store repository.Store, engine GamificationEngine, leaderboards LeaderboardService, missions MissionService, notifications NotificationService) SystemService {
	return &systemService{
		store:         store,
		engine:        engine,
		leaderboards:  leaderboards,
		missions:      missions,
		notifications: notifications,
	}
}

// RunDailyMaintenance refreshes daily rankings, hands out missions to recently active users,
// fails expired missions, purges old notifications and stamps the run time.
// Failures are collected per unit of work; the batch always runs every step.
func (s *systemService) RunDailyMaintenance(ctx context.Context) (*models.MaintenanceResult, error) {
	now := s.engine.Now()
	result := &models.MaintenanceResult{}
	fail := func(format string, args ...interface{}) {
		result.Failures = append(result.Failures, fmt.Sprintf(format, args...))
	}

	ranking, err := s.leaderboards.UpdateRankings(ctx, models.PeriodDaily)
	if err != nil {
		fail("leaderboards: %v", err)
	} else {
		result.LeaderboardsUpdated = true
		for _, e := range ranking.Errors {
			fail("leaderboards: %s", e)
		}
		logger.Maintenance("leaderboards", ranking.EntriesWritten, len(ranking.Errors))
	}

	users, err := s.store.Users().ListActiveSince(ctx, now.Add(-activeUserWindow))
	if err != nil {
		fail("active users: %v", err)
	}
	failedUsers := 0
	for _, userID := range users {
		missions, err := s.missions.AssignDailyMissions(ctx, userID)
		if err != nil {
			failedUsers++
			fail("missions for user %s: %v", userID, err)
			continue
		}
		result.MissionsAssigned += len(missions)

		if _, err := s.engine.CheckAllAchievements(ctx, userID); err != nil {
			failedUsers++
			fail("achievements for user %s: %v", userID, err)
			continue
		}
		result.AchievementsChecked++
	}
	logger.Maintenance("missions", len(users)-failedUsers, failedUsers)

	expired, err := s.missions.FailExpiredMissions(ctx)
	result.MissionsExpired = expired
	if err != nil {
		fail("expired missions: %v", err)
	}

	cleaned, err := s.notifications.PurgeOlderThan(ctx, now.Add(-notificationRetention))
	if err != nil {
		fail("notifications: %v", err)
	} else {
		result.NotificationsCleaned = cleaned
		logger.Maintenance("notifications", cleaned, 0)
	}

	if _, err := s.SetSetting(ctx, SettingLastMaintenanceRun, now.Format(time.RFC3339), "Time of the last daily maintenance run"); err != nil {
		fail("settings: %v", err)
	}

	if err := utils.FailuresError("daily maintenance", result.Failures); err != nil {
		result.Error = err.Error()
	}
	return result, nil
}

func (s *systemService) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.store.Settings().Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting, nil
}

// SetSetting stores value under key, inferring its data type
func (s *systemService) SetSetting(ctx context.Context, key string, value interface{}, description string) (*models.SystemSetting, error) {
	if key == "" {
		return nil, fmt.Errorf("setting key is required: %w", models.ErrInvalidInput)
	}
	setting, err := models.NewSystemSetting(key, value, description)
	if err != nil {
		return nil, err
	}
	setting.UpdatedAt = s.engine.Now()
	if err := s.store.Settings().Set(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return setting, nil
}
