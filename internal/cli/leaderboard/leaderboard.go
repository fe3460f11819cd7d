package leaderboard

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/pkg/models"
)

var LeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Leaderboard commands",
	Long:  "Recompute and inspect ranking snapshots",
}

var allPeriods = []models.LeaderboardPeriod{
	models.PeriodDaily,
	models.PeriodWeekly,
	models.PeriodMonthly,
	models.PeriodAllTime,
}

// periodsFlag resolves --period; empty means every period
func periodsFlag(cmd *cobra.Command) ([]models.LeaderboardPeriod, error) {
	raw, _ := cmd.Flags().GetString("period")
	if raw == "" {
		return allPeriods, nil
	}
	p, ok := models.ParseLeaderboardPeriod(raw)
	if !ok {
		return nil, fmt.Errorf("unknown period %q (daily, weekly, monthly, all_time)", raw)
	}
	return []models.LeaderboardPeriod{p}, nil
}
