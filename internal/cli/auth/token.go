package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskquest/internal/cli/runtime"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token",
	Long:  "Sign a bearer token for a user already registered with TaskQuest",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return fmt.Errorf("--user is required")
		}

		a, err := runtime.Open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Auth.GetUserByID(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to find user %s: %w", userID, err)
		}

		token, expiresAt, err := a.Auth.IssueToken(user)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Token for %s (%s) expires %s\n", user.Username, user.Role, expiresAt.Format("2006-01-02 15:04 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "User ID (required)")
	tokenCmd.MarkFlagRequired("user")
	AuthCmd.AddCommand(tokenCmd)
}
