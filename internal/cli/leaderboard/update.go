package leaderboard

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
	"taskquest/pkg/utils"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Recompute rankings",
	Long:  "Write a fresh ranking snapshot for one period, or all of them when --period is omitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, err := periodsFlag(cmd)
		if err != nil {
			return err
		}

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		var errs []error
		for _, period := range periods {
			result, err := a.Leaderboards.UpdateRankings(cmd.Context(), period)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", period, err))
				continue
			}
			fmt.Fprintf(out, "✓ %s: %d entries\n", period, result.EntriesWritten)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  ✗ %s\n", e)
			}
		}
		return utils.CombineErrors(errs...)
	},
}

func init() {
	updateCmd.Flags().String("period", "", "daily, weekly, monthly or all_time (default: all)")
	LeaderboardCmd.AddCommand(updateCmd)
}
