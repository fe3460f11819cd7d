package progress

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Ensure and show a user's progress profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Engine.EnsureProfile(cmd.Context(), userID); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}
		summary, err := a.Engine.ProfileSummary(cmd.Context(), userID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", userID)
		fmt.Fprintf(out, "  Level %d, %d XP (%.1f%% to next, %d needed)\n",
			summary.CurrentLevel, summary.TotalXP, summary.ProgressPercentage, summary.XPNeededForNextLevel)
		fmt.Fprintf(out, "  Streak: %d current, %d longest\n", summary.CurrentStreak, summary.LongestStreak)
		fmt.Fprintf(out, "  Punctuality: %d%%\n", summary.PunctualityRate)
		return nil
	},
}

func init() {
	profileCmd.Flags().String("user", "", "User ID (required)")
	profileCmd.MarkFlagRequired("user")
	ProgressCmd.AddCommand(profileCmd)
}
