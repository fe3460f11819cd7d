// Package runtime loads configuration and opens the services for CLI commands
package runtime

import (
	"context"

	"github.com/spf13/viper"

	"taskquest/internal/app"
	"taskquest/pkg/config"
	"taskquest/pkg/logger"
)

// Opener builds the application for a command. Tests replace it with an in-memory build.
var Opener = openFromConfig

// LoadConfig reads the file named by --config and applies flag overrides bound in viper
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if tz := viper.GetString("timezone"); tz != "" {
		cfg.Engine.Timezone = tz
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Open builds the application; the caller must Close it
func Open(ctx context.Context) (*app.App, error) {
	return Opener(ctx)
}

func openFromConfig(ctx context.Context) (*app.App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	return app.New(ctx, cfg)
}
