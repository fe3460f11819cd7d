package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskquest/internal/app"
	"taskquest/pkg/config"
	"taskquest/pkg/logger"
	"taskquest/pkg/utils"
)

// Server manages the HTTP REST API in front of the progression services
type Server struct {
	router  *gin.Engine
	config  *config.Config
	app     *app.App
	limiter *userLimiter
	httpSrv *http.Server
}

// NewServer creates a new HTTP server with all handlers
func NewServer(cfg *config.Config, a *app.App) *Server {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router:  router,
		config:  cfg,
		app:     a,
		limiter: newUserLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1", AuthMiddleware(s.app.Auth))
	{
		v1.GET("/me", s.getMe)
		v1.GET("/categories", s.listCategories)

		// Mutating routes share the per-user limiter
		limited := v1.Group("", s.RateLimitMiddleware())

		tasks := v1.Group("/tasks")
		{
			tasks.GET("", s.listTasks)
			tasks.GET("/:id", s.getTask)
			tasks.GET("/:id/xp-preview", s.previewTaskXP)
		}
		limited.POST("/tasks", s.createTask)
		limited.POST("/tasks/:id/complete", s.completeTask)

		progress := v1.Group("/progress")
		{
			progress.GET("/profile", s.getProfile)
			progress.GET("/xp-history", s.getXPHistory)
		}
		limited.POST("/progress/streak/recalculate", s.recalculateStreak)

		v1.GET("/achievements", s.listAchievements)
		v1.GET("/achievements/unlocked", s.listUnlockedAchievements)
		limited.POST("/achievements/check", s.checkAchievements)

		v1.GET("/reviews", s.listReviews)
		limited.POST("/reviews/generate", s.generateReview)

		boards := v1.Group("/leaderboards")
		{
			boards.GET("/:period", s.getLeaderboard)
			boards.GET("/:period/me", s.getMyRank)
			boards.GET("/:period/context", s.getPositionContext)
		}

		missions := v1.Group("/missions")
		{
			missions.GET("", s.listMissions)
			missions.GET("/available", s.listAvailableMissions)
			missions.GET("/generate", s.previewRandomMissions)
			missions.GET("/:id", s.getMission)
		}
		limited.POST("/missions/daily", s.assignDailyMissions)
		limited.POST("/missions/accept", s.acceptMission)
		limited.POST("/missions/:id/abandon", s.abandonMission)

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", s.listNotifications)
			notifications.GET("/unread-count", s.unreadCount)
			notifications.POST("/:id/read", s.markNotificationRead)
			notifications.POST("/read-all", s.markAllNotificationsRead)
			notifications.POST("/:id/archive", s.archiveNotification)
		}

		// Admin routes (requires admin role)
		admin := v1.Group("/admin", AdminMiddleware(s.app.Auth))
		{
			admin.POST("/users", s.registerUser)
			admin.POST("/leaderboards/:period/refresh", s.refreshLeaderboard)
			admin.POST("/maintenance/run", s.runMaintenance)
			admin.GET("/settings/:key", s.getSetting)
			admin.PUT("/settings/:key", s.putSetting)
		}
	}
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("HTTP server listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := utils.WithTimeout(c.Request.Context())
	defer cancel()

	if err := s.app.HealthCheck(ctx); err != nil {
		c.JSON(503, gin.H{
			"status":   "degraded",
			"database": "unreachable",
			"time":     time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(200, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
