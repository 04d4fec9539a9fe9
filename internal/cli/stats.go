package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/readly-app/readly/internal/app/gamify"
	"github.com/readly-app/readly/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show a user's reading stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	stats, err := d.Aggregator.Stats(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Books\t%d\n", stats.TotalBooks)
	fmt.Fprintf(w, "Minutes\t%d\n", stats.TotalMinutes)
	fmt.Fprintf(w, "Current streak\t%d days\n", stats.CurrentStreak)
	fmt.Fprintf(w, "Longest streak\t%d days\n", stats.LongestStreak)
	fmt.Fprintf(w, "Points\t%d\n", stats.TotalPoints)
	fmt.Fprintf(w, "Level\t%d (%d books to next)\n",
		stats.Level, gamify.BooksToNextLevel(stats.TotalBooks))
	return w.Flush()
}
