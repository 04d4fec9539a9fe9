// Package cli implements the Readly command-line interface using Cobra.
// Each subcommand maps to an engagement capability (serve, stats, badges).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "readly",
	Short: "Readly — Reading habits, gamified",
	Long: `Readly is the engagement engine behind the family reading tracker.
Check-ins, streaks, badges, points, daily challenges, and reminders.

Run "readly serve" to start the API daemon.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
