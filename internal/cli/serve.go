package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/readly-app/readly/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoReminders, "no-reminders", false, "Disable the reminder scheduler")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost        string
	servePort        int
	serveNoReminders bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Readly API server",
	Long:  `Start the engagement API server and the background reminder loop.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		d.Config.API.Host = serveHost
	}
	if servePort > 0 {
		d.Config.API.Port = servePort
	}
	if serveNoReminders {
		d.Config.Reminders.Enabled = false
	}

	return d.Serve(context.Background())
}
