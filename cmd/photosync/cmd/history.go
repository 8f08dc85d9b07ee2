package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photosync/internal/catalog"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent synchronization runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	scans, err := store.RecentScans(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scans) == 0 {
		fmt.Fprintln(out, "No sync runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tROOT\tFOUND\tNEW\tMODIFIED\tMOVED\tUNCHANGED\tERRORS\tDURATION")
	for _, s := range scans {
		when := humanize.Time(s.StartedAt)
		if s.Cancelled {
			when += " (cancelled)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			when, s.Root, s.Found, s.New, s.Modified, s.Moved,
			s.Unchanged, s.Errors,
			s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	return w.Flush()
}
