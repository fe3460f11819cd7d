package progress

import "github.com/spf13/cobra"

var ProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Per-user progression commands",
	Long:  "Inspect and repair a single user's profile, streak and weekly review",
}
