package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "reminderbot"

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Telegram task list with two-stage reminders",
		Long: `reminderbot keeps a per-user task list in SQLite and delivers reminders
over Telegram: a pre-alert two minutes ahead and an alert at the due time.
One-time and weekly reminders are supported.

Settings come from an optional YAML file (--config or $REMINDER_CONFIG)
overridden by environment variables such as TELEGRAM_TOKEN and DATABASE_URL.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		runCmd(&configPath),
		listCmd(&configPath),
		exportCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
			},
		},
	)
	return cmd
}
