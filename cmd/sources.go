package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudsight/skysnap/internal/clock/system"
	"github.com/cloudsight/skysnap/internal/snapshot"
)

// newSourcesCmd creates the 'sources' subcommand, which prints the schedule
// that a collect run started now would follow.
func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the configured sources in schedule order",

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			defs, err := appInstance.Config().Definitions()
			if err != nil {
				return fmt.Errorf("load sources: %w", err)
			}
			items, err := snapshot.Expand(defs)
			if err != nil {
				return fmt.Errorf("expand sources: %w", err)
			}

			now := system.New().Now()
			for i := range items {
				items[i].ComputeTarget(now)
			}
			snapshot.OrderSchedule(items)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SOURCE\tURL\tCROP\tTARGET (UTC)\n")
			for i := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					items[i].DisplayForm(),
					items[i].URL,
					items[i].Crop,
					items[i].Target.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
