// Package app wires configuration, storage and the core services for the server and the CLI
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"taskquest/internal/core"
	"taskquest/internal/repository"
	"taskquest/pkg/config"
	"taskquest/pkg/database"
	"taskquest/pkg/logger"
	"taskquest/pkg/utils"
)

// App holds every long-lived dependency
type App struct {
	Config *config.Config
	Clock  core.Clock

	pool  *pgxpool.Pool
	redis *redis.Client

	Store         repository.Store
	Engine        core.GamificationEngine
	Notifications core.NotificationService
	Missions      core.MissionService
	Tasks         core.TaskService
	Leaderboards  core.LeaderboardService
	System        core.SystemService
	Auth          core.AuthService
	Lifecycle     core.UserLifecycle
	Seeder        *core.Seeder
}

// New connects to PostgreSQL and redis and builds the services.
// Redis is optional: without it user locks are held in process.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := database.NewPGXPool(cfg.DB())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Connected to PostgreSQL database")

	var client *redis.Client
	if cfg.Redis.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var locker core.Locker
	if client != nil {
		locker = core.NewLocker(pingCtx, client, cfg.Engine.LockTTL, cfg.Engine.LockWait)
	} else {
		locker = core.NewLocalLocker(cfg.Engine.LockWait)
	}

	a, err := Build(cfg, repository.NewStore(pool), core.SystemClock(), locker)
	if err != nil {
		pool.Close()
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}
	a.pool = pool
	a.redis = client
	return a, nil
}

// Build wires the services over an existing store
func Build(cfg *config.Config, store repository.Store, clock core.Clock, locker core.Locker) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Clock: clock, Store: store}
	a.Engine = core.NewGamificationEngine(store, clock, loc)
	a.Notifications = core.NewNotificationService(store, clock)
	a.Missions = core.NewMissionService(store, a.Engine, a.Notifications, nil)
	a.Tasks = core.NewTaskService(store, a.Engine, a.Missions, a.Notifications, locker)
	a.Leaderboards = core.NewLeaderboardService(store, clock)
	a.System = core.NewSystemService(store, a.Engine, a.Leaderboards, a.Missions, a.Notifications)
	a.Auth = core.NewAuthService(store.Users(), clock, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	a.Lifecycle = core.NewUserLifecycle(store, a.Engine)
	a.Seeder = core.NewSeeder(store, clock)
	return a, nil
}

// HealthCheck pings the database when one is attached
func (a *App) HealthCheck(ctx context.Context) error {
	if a.pool == nil {
		return nil
	}
	return a.pool.Ping(ctx)
}

// Close releases the database pool and the redis client
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warnf("failed to close redis client: %v", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// RunMaintenanceLoop runs daily maintenance every interval until ctx is done
func (a *App) RunMaintenanceLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runMaintenance(ctx)
		}
	}
}

func (a *App) runMaintenance(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("maintenance panic recovered: %v", r)
		}
	}()
	ctx, cancel := utils.WithLongTimeout(ctx)
	defer cancel()

	result, err := a.System.RunDailyMaintenance(ctx)
	if err != nil {
		if utils.IsContextError(err) {
			logger.Warnf("daily maintenance interrupted: %v", err)
			return
		}
		logger.Errorf("daily maintenance failed: %v", err)
		return
	}
	if result.Error != "" {
		logger.Warnf("daily maintenance finished with failures: %s", result.Error)
		return
	}
	logger.WithFields(map[string]interface{}{
		"missions_assigned":     result.MissionsAssigned,
		"missions_expired":      result.MissionsExpired,
		"notifications_cleaned": result.NotificationsCleaned,
		"achievements_checked":  result.AchievementsChecked,
	}).Info("daily maintenance finished")
}
