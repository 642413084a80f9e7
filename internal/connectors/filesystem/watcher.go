package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the sorted set of changed files after a quiet period.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher reports changes to allow-listed files below a set of roots.
type Watcher struct {
	extractors driven.ExtractorRegistry
	debounce   time.Duration
	onChange   ChangeFunc

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher that calls onChange for batches of changes.
func NewWatcher(extractors driven.ExtractorRegistry, onChange ChangeFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		extractors: extractors,
		debounce:   DefaultDebounce,
		onChange:   onChange,
		pending:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches roots until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, roots ...string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range roots {
		if err := watchRecursive(fw, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		logger.Info("Watching %s", root)
	}

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || isHidden(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watchRecursive(fw, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
			return
		}
	}

	if !w.extractors.Supports(filepath.Base(event.Name)) {
		return
	}
	logger.Debug("Change detected: %s %s", event.Op, event.Name)
	w.schedule(ctx, event.Name)
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(paths)
	w.onChange(ctx, paths)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func watchRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
