// Package cmd provides the CLI commands for photosync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"photosync/internal/config"
	syncerrors "photosync/internal/errors"
	"photosync/internal/logging"
	"photosync/internal/profiling"
	"photosync/pkg/version"
)

// Persistent flags shared by all commands.
var (
	flagCatalog    string
	flagDebug      bool
	flagPlain      bool
	flagVerbose    bool
	flagProfileCPU string
	flagProfileMem string

	loggingCleanup func()
	cpuProfileStop func()
)

// NewRootCmd creates the root command for the photosync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photosync [path]",
		Short: "Incremental image catalog synchronizer",
		Long: `photosync keeps a catalog of your image library in sync with the
files on disk. Each run discovers images, identifies them by content,
and records what is new, what changed, and what merely moved.

Running photosync with no subcommand syncs the given directory
(default: the current directory).`,
		Version: version.Version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runSync(cmd, path, syncFlags{})
		},
	}

	cmd.SetVersionTemplate("photosync version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Catalog database path (default: ~/.photosync/catalog.db)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "Force plain text output")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print a line per processed file")
	cmd.PersistentFlags().StringVar(&flagProfileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&flagProfileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = setupRun
	cmd.PersistentPostRunE = teardownRun

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupRun installs the file logger and starts profiling before any
// command runs.
func setupRun(_ *cobra.Command, _ []string) error {
	var opts []logging.Option
	if userCfg, err := config.LoadUserConfig(); err == nil && userCfg != nil {
		opts = append(opts,
			logging.WithLevel(logging.ParseLevel(userCfg.Logging.Level)),
			logging.WithFile(userCfg.Logging.File))
	}
	if flagDebug {
		opts = append(opts,
			logging.WithLevel(slog.LevelDebug),
			logging.WithMirror(os.Stderr))
	}

	logger, cleanup, err := logging.Setup(opts...)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if flagDebug {
		slog.Debug("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if flagProfileCPU != "" {
		cpuProfileStop, err = profiling.StartCPU(flagProfileCPU)
		if err != nil {
			return err
		}
	}
	return nil
}

func teardownRun(_ *cobra.Command, _ []string) error {
	if cpuProfileStop != nil {
		cpuProfileStop()
		cpuProfileStop = nil
	}
	if flagProfileMem != "" {
		if err := profiling.WriteHeap(flagProfileMem); err != nil {
			return err
		}
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads the effective configuration for a directory and
// applies command-line overrides.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if flagCatalog != "" {
		cfg.Catalog.Path = flagCatalog
	}
	return cfg, nil
}

// Execute runs the root command. Structured errors are rendered with
// their code and suggestion instead of cobra's bare message.
func Execute() error {
	cmd := NewRootCmd()
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, syncerrors.FormatForCLI(err))
	}
	return err
}
