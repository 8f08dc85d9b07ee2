package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photosync/internal/catalog"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog status",
		Long:  `Status reports what the catalog currently holds and when it was last synced.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(cfg.Catalog.Path); os.IsNotExist(err) {
		fmt.Fprintf(out, "No catalog at %s\n", cfg.Catalog.Path)
		fmt.Fprintln(out, "Run 'photosync sync <directory>' to create one.")
		return nil
	}

	// WAL mode permits reading while a sync holds the writer lock
	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Catalog:   %s\n", cfg.Catalog.Path)
	fmt.Fprintf(out, "Images:    %s (%s)\n",
		humanize.Comma(stats.Images), humanize.Bytes(uint64(stats.TotalBytes)))
	fmt.Fprintf(out, "Markers:   %s\n", humanize.Comma(stats.Markers))
	fmt.Fprintf(out, "Syncs:     %s\n", humanize.Comma(stats.Scans))
	if stats.LastScan != nil {
		fmt.Fprintf(out, "Last sync: %s\n", humanize.Time(*stats.LastScan))
	} else {
		fmt.Fprintln(out, "Last sync: never")
	}

	return nil
}
