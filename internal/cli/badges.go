package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/readly-app/readly/internal/daemon"
)

func init() {
	rootCmd.AddCommand(badgesCmd)
}

var badgesCmd = &cobra.Command{
	Use:   "badges <user-id>",
	Short: "Show a user's badges against the full catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	earned, err := d.Badges.Earned(args[0])
	if err != nil {
		return err
	}
	earnedAt := make(map[string]string, len(earned))
	for _, ub := range earned {
		earnedAt[ub.BadgeID] = ub.EarnedAt.Format("2006-01-02")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BADGE\tNAME\tREWARD\tEARNED")
	for _, b := range d.Badges.Definitions() {
		when := "-"
		if at, ok := earnedAt[b.ID]; ok {
			when = at
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.ID, b.Name, b.Reward, when)
	}
	return w.Flush()
}
