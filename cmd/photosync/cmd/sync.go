package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photosync/internal/catalog"
	"photosync/internal/config"
	syncerrors "photosync/internal/errors"
	"photosync/internal/reconcile"
	"photosync/internal/ui"
)

// syncFlags are per-invocation overrides of the sync configuration.
type syncFlags struct {
	batchSize int
	workers   int
	shallow   bool
}

func newSyncCmd() *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:     "sync [path]",
		Aliases: []string{"scan"},
		Short:   "Synchronize an image directory into the catalog",
		Long: `Sync discovers image files under the given directory, identifies
each one by its content, and updates the catalog. Files already
cataloged are skipped cheaply; renames are detected and recorded
without creating duplicate entries.

Interrupting a sync is safe: completed batches are kept and the next
run picks up where this one left off.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runSync(cmd, path, flags)
		},
	}

	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Records per catalog commit (default from config)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Concurrent hashing workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&flags.shallow, "shallow", false, "Do not descend into subdirectories")

	return cmd
}

// runSync executes one synchronization pass and maps the outcome to
// the process exit status.
func runSync(cmd *cobra.Command, path string, flags syncFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reject a bad root before the catalog is opened or created
	info, err := os.Stat(path)
	if err != nil {
		return syncerrors.New(syncerrors.ErrCodeInvalidPath,
			fmt.Sprintf("cannot sync %s", path), err)
	}
	if !info.IsDir() {
		return syncerrors.New(syncerrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is not a directory", path), nil)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if flags.batchSize > 0 {
		cfg.Sync.BatchSize = flags.batchSize
	}
	if flags.workers > 0 {
		cfg.Sync.Workers = flags.workers
	}
	if flags.shallow {
		cfg.Scan.Recursive = false
	}

	store, release, err := openCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer release()

	summary, err := syncOnce(ctx, cmd, cfg, store, path)
	if err != nil {
		return err
	}

	if summary.Cancelled {
		return fmt.Errorf("sync interrupted; %d files processed, rerun to continue", summary.Found)
	}
	// Per-file errors are reported in the summary but never fail the
	// run; only cancellation and storage failures do.
	return nil
}

// syncOnce runs a single pass with a fresh renderer. Watch mode calls
// this once per event batch.
func syncOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store catalog.Store, path string) (*reconcile.Summary, error) {
	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(flagPlain),
		ui.WithVerbose(flagVerbose),
		ui.WithRootDir(path)))

	runner, err := reconcile.NewRunner(reconcile.RunnerConfig{
		RootDir:         path,
		BatchSize:       cfg.Sync.BatchSize,
		Workers:         cfg.Sync.Workers,
		CacheSize:       cfg.Sync.CacheSize,
		Extensions:      cfg.NormalizedExtensions(),
		ExcludePatterns: cfg.Scan.Exclude,
		Recursive:       cfg.Scan.Recursive,
		MinSizeBytes:    cfg.Scan.MinSizeBytes,
		MaxSizeBytes:    cfg.Scan.MaxSizeBytes,
	}, reconcile.RunnerDependencies{
		Store:    store,
		Renderer: renderer,
	})
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx)
}
