// Package cli assembles the taskquestctl command tree
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskquest/internal/cli/auth"
	"taskquest/internal/cli/config"
	"taskquest/internal/cli/db"
	"taskquest/internal/cli/leaderboard"
	"taskquest/internal/cli/maintenance"
	"taskquest/internal/cli/progress"
	"taskquest/internal/cli/seed"
)

// NewRootCmd builds the root command with every command group attached
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskquestctl",
		Short:         "Operate a TaskQuest deployment",
		Long:          "Run maintenance, rebuild rankings, seed the catalogue and repair user progress against the TaskQuest database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default: ./configs/development.yaml)")
	root.PersistentFlags().String("log-level", "", "override logging.level")
	root.PersistentFlags().String("timezone", "", "override engine.timezone")
	for _, name := range []string{"config", "log-level", "timezone"} {
		_ = viper.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}

	viper.SetEnvPrefix("TASKQUEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(
		auth.AuthCmd,
		config.ConfigCmd,
		db.DBCmd,
		leaderboard.LeaderboardCmd,
		maintenance.MaintenanceCmd,
		progress.ProgressCmd,
		seed.SeedCmd,
	)
	return root
}

// Execute runs the command tree against ctx
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
