package leaderboard

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
	"taskquest/pkg/utils"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the latest rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, err := periodsFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, period := range periods {
			entries, err := a.Leaderboards.GetLeaderboard(cmd.Context(), period, limit)
			if err != nil {
				return fmt.Errorf("failed to load %s leaderboard: %w", period, err)
			}

			fmt.Fprintf(out, "\n%s (%d entries):\n\n", period, len(entries))
			if len(entries) == 0 {
				fmt.Fprintln(out, "  No snapshot yet. Run: taskquestctl leaderboard update")
				continue
			}
			fmt.Fprintf(out, "  %-4s %-36s %6s %5s %6s %6s\n", "RANK", "USER", "SCORE", "TASKS", "XP", "STREAK")
			for _, e := range entries {
				fmt.Fprintf(out, "  %-4d %-36s %6d %5d %6d %6d\n", e.Rank, e.UserID, e.Score, e.TasksCompleted, e.TotalXP, e.StreakCount)
			}
			fmt.Fprintf(out, "\n  Refreshed %s\n", utils.TimeAgo(entries[0].UpdatedAt, a.Clock.Now()))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().String("period", "weekly", "daily, weekly, monthly or all_time (empty: all)")
	showCmd.Flags().Int("limit", 10, "Number of entries")
	LeaderboardCmd.AddCommand(showCmd)
}
