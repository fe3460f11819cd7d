package db

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
	"taskquest/pkg/database"
)

var DBCmd = &cobra.Command{
	Use:   "db",
	Short: "Database commands",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema",
	Long:  "Create every TaskQuest table and index. Statements are idempotent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runtime.LoadConfig()
		if err != nil {
			return err
		}

		db, err := database.NewDB(cfg.DB())
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		if err := db.ApplySchema(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema applied to %s@%s/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Database)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runtime.LoadConfig()
		if err != nil {
			return err
		}

		db, err := database.NewDB(cfg.DB())
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer db.Close()

		if err := db.HealthCheck(cmd.Context()); err != nil {
			return err
		}
		stats := db.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Database reachable (%d open connections)\n", stats.OpenConnections)
		return nil
	},
}

func init() {
	DBCmd.AddCommand(migrateCmd)
	DBCmd.AddCommand(pingCmd)
}
