package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"photosync/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		flagFile string
		flagTail int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: `Logs prints the most recent records from the photosync log file.
Records are JSON lines; pipe through jq for filtering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(flagFile)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read log file: %w", err)
			}

			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if flagTail > 0 && len(lines) > flagTail {
				lines = lines[len(lines)-flagTail:]
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFile, "file", "", "Log file to read (default: the active log file)")
	cmd.Flags().IntVarP(&flagTail, "tail", "n", 50, "Number of records to show (0 for all)")

	return cmd
}
