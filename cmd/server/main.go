package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskquest/internal/app"
	httpProtocol "taskquest/internal/protocols/http"
	"taskquest/pkg/config"
	"taskquest/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	logger.Info("Starting TaskQuest server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := a.Seeder.SeedAll(ctx); err != nil {
		logger.Warnf("Seeding defaults failed (non-fatal): %v", err)
	}

	httpServer := httpProtocol.NewServer(cfg, a)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("HTTP server panic recovered: %v", r)
			}
		}()
		if err := httpServer.Start(cfg.Addr()); err != nil {
			logger.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	if cfg.Maintenance.Enabled {
		go a.RunMaintenanceLoop(ctx, cfg.Maintenance.Interval)
		logger.Info(fmt.Sprintf("Daily maintenance scheduled every %s", cfg.Maintenance.Interval))
	}

	logger.Info("Press Ctrl+C to shutdown")
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}

	logger.Info("Shutdown complete")
}
