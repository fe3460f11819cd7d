package progress

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Recalculate a user's streak from history",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Engine.RecalculateStreak(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to recalculate streak: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Streak recalculated for %s\n", userID)
		fmt.Fprintf(out, "  Current: %d days\n", summary.CurrentStreak)
		fmt.Fprintf(out, "  Longest: %d days\n", summary.LongestStreak)
		if summary.LastActivity != nil {
			fmt.Fprintf(out, "  Last activity: %s\n", summary.LastActivity.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	streakCmd.Flags().String("user", "", "User ID (required)")
	streakCmd.MarkFlagRequired("user")
	ProgressCmd.AddCommand(streakCmd)
}
