package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskquest/internal/cli/runtime"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the resolved TaskQuest configuration after file, .env and environment overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runtime.LoadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		source := viper.GetString("config")
		if source == "" {
			source = "(auto-detected)"
		}
		fmt.Fprintln(out, "TaskQuest Configuration:")
		fmt.Fprintf(out, "  Source: %s\n\n", source)

		fmt.Fprintf(out, "Server:\n")
		fmt.Fprintf(out, "  Address: %s\n", cfg.Addr())
		fmt.Fprintf(out, "  Mode: %s\n\n", cfg.Server.Mode)

		fmt.Fprintf(out, "Database:\n")
		fmt.Fprintf(out, "  Host: %s:%d\n", cfg.Database.Host, cfg.Database.Port)
		fmt.Fprintf(out, "  Name: %s\n", cfg.Database.Database)
		fmt.Fprintf(out, "  User: %s\n\n", cfg.Database.User)

		fmt.Fprintf(out, "Redis:\n")
		if cfg.Redis.Addr != "" {
			fmt.Fprintf(out, "  Address: %s (db %d)\n\n", cfg.Redis.Addr, cfg.Redis.DB)
		} else {
			fmt.Fprintf(out, "  Disabled: user locks are held in process\n\n")
		}

		fmt.Fprintf(out, "Engine:\n")
		fmt.Fprintf(out, "  Timezone: %s\n", cfg.Engine.Timezone)
		fmt.Fprintf(out, "  Lock TTL: %s\n", cfg.Engine.LockTTL)
		fmt.Fprintf(out, "  Maintenance: enabled=%t every %s\n", cfg.Maintenance.Enabled, cfg.Maintenance.Interval)

		secret := cfg.JWT.Secret
		if len(secret) > 4 {
			secret = secret[:4] + "..."
		}
		fmt.Fprintf(out, "\nJWT:\n  Issuer: %s\n  Secret: %s\n", cfg.JWT.Issuer, secret)
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(showCmd)
}
