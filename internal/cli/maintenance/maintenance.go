package maintenance

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
)

var MaintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Batch maintenance commands",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run daily maintenance now",
	Long:  "Refresh leaderboards, assign daily missions, check achievements, fail expired missions and purge old notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.System.RunDailyMaintenance(cmd.Context())
		if err != nil {
			return fmt.Errorf("maintenance failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Daily maintenance at %s\n", a.Clock.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  Leaderboards updated: %t\n", result.LeaderboardsUpdated)
		fmt.Fprintf(out, "  Missions assigned: %d\n", result.MissionsAssigned)
		fmt.Fprintf(out, "  Achievements checked: %d users\n", result.AchievementsChecked)
		fmt.Fprintf(out, "  Missions expired: %d\n", result.MissionsExpired)
		fmt.Fprintf(out, "  Notifications purged: %d\n", result.NotificationsCleaned)
		if result.Error != "" {
			return fmt.Errorf("maintenance finished with failures: %s", result.Error)
		}
		fmt.Fprintln(out, "✓ Done")
		return nil
	},
}

func init() {
	MaintenanceCmd.AddCommand(runCmd)
}
