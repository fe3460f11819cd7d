package progress

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate this week's review for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		review, err := a.Engine.GenerateWeeklyReview(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to generate review: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Week %s to %s\n", review.WeekStart.Format("2006-01-02"), review.WeekEnd.Format("2006-01-02"))
		fmt.Fprintf(out, "  Tasks completed: %d\n", review.TotalTasks)
		fmt.Fprintf(out, "  XP earned: %d\n", review.TotalXP)
		fmt.Fprintf(out, "  Early/on time/late: %d/%d/%d\n", review.EarlyCompletions, review.OnTimeCompletions, review.LateCompletions)
		fmt.Fprintf(out, "  Score: %d (%s)\n", review.PerformanceScore, review.PerformanceGrade())
		if review.Suggestions != "" {
			fmt.Fprintf(out, "\nSuggestions:\n%s\n", review.Suggestions)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().String("user", "", "User ID (required)")
	reviewCmd.MarkFlagRequired("user")
	ProgressCmd.AddCommand(reviewCmd)
}
