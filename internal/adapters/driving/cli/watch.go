package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwyrm/internal/connectors/filesystem"
	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

var watchFlags struct {
	out      string
	db       string
	noEmbed  bool
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-ingest a folder whenever its files change",
	Long: `Ingests the folder once, then watches it and ingests it again after
allow-listed files are created, modified or removed. Hidden directories are
not watched.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVarP(&watchFlags.out, "out", "o", "", "Rewrite the result to this file after every run")
	f.StringVar(&watchFlags.db, "db", "", "Store every run in this SQLite database")
	f.BoolVar(&watchFlags.noEmbed, "no-embed", false, "Skip the embedding step")
	f.DurationVar(&watchFlags.debounce, "debounce", filesystem.DefaultDebounce, "Quiet period before re-ingesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", dir, domain.ErrInvalidInput)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if watchFlags.db != "" {
		settings.DatabasePath = watchFlags.db
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, settings, runOptions{noEmbed: watchFlags.noEmbed, allowMissing: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// Runs never overlap; a change during a run queues the next one.
	var mu sync.Mutex
	ingest := func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()
		if err := watchRun(ctx, cmd, a, dir); err != nil {
			logger.Error(err, "Ingesting %s", dir)
		}
	}

	ingest(ctx)

	watcher := filesystem.NewWatcher(a.extractors, func(ctx context.Context, paths []string) {
		logger.Info("%d files changed", len(paths))
		for _, p := range paths {
			logger.Debug("  %s", p)
		}
		ingest(ctx)
	}, filesystem.WithDebounce(watchFlags.debounce))

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	if err := watcher.Run(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

func watchRun(ctx context.Context, cmd *cobra.Command, a *app, dir string) error {
	result, err := a.pipeline.Run(ctx, []string{dir})
	if result == nil {
		return err
	}
	if err != nil {
		logger.Warn("Embedding failed, result has no embeddings: %v", err)
	}

	if watchFlags.out != "" {
		f, err := os.Create(watchFlags.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := writeAndClose(f, result, formatJSON); err != nil {
			return err
		}
	}

	cmd.Printf("[%s] run %s: %d chunks\n", time.Now().Format(time.TimeOnly), result.RunID, len(result.Chunks))
	return nil
}
