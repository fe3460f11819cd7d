package seed

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
	"taskquest/internal/core"
)

var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the default catalogue",
	Long:  "Upsert default categories, achievements and mission templates. Safe to run repeatedly.",
}

// seedStep runs one seeder method and reports how many rows it touched
func seedStep(name string, fn func(s *core.Seeder, ctx context.Context) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Seed default %s", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := runtime.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := fn(a.Seeder, cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %d %s\n", n, name)
			return nil
		},
	}
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Seed everything",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Seeder.SeedAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Default categories, achievements and missions seeded")
		return nil
	},
}

func init() {
	SeedCmd.AddCommand(allCmd)
	SeedCmd.AddCommand(seedStep("categories", (*core.Seeder).SeedCategories))
	SeedCmd.AddCommand(seedStep("achievements", (*core.Seeder).SeedAchievements))
	SeedCmd.AddCommand(seedStep("missions", (*core.Seeder).SeedMissionTemplates))
}
