package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncerrors "photosync/internal/errors"
	"photosync/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a directory and sync changes continuously",
		Long: `Watch monitors the given directory for file changes and re-syncs
after each burst of activity settles. A camera import that writes
hundreds of files triggers one catalog update, not hundreds.

An initial full sync runs before watching begins. Press Ctrl+C to
stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runWatch(cmd, path)
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command, path string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(path)
	if err != nil {
		return syncerrors.New(syncerrors.ErrCodeInvalidPath,
			fmt.Sprintf("cannot watch %s", path), err)
	}
	if !info.IsDir() {
		return syncerrors.New(syncerrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is not a directory", path), nil)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	store, release, err := openCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer release()

	// Baseline sync so watching starts from a consistent catalog
	if _, err := syncOnce(ctx, cmd, cfg, store, path); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	w, err := watcher.New(watcher.Options{
		DebounceWindow:  cfg.DebounceDuration(),
		Extensions:      cfg.NormalizedExtensions(),
		ExcludePatterns: cfg.Scan.Exclude,
		Recursive:       cfg.Scan.Recursive,
	}, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Start(ctx, path) }()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			slog.Info("change_batch",
				slog.Int("events", len(batch)),
				slog.String("root", path))

			summary, err := syncOnce(ctx, cmd, cfg, store, path)
			if err != nil {
				return err
			}
			if summary.Cancelled {
				return nil
			}
		}
	}
}
