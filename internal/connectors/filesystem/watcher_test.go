package filesystem

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/normalisers"
)

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/home/user/file.txt", false},
		{"/home/user/.git/config", true},
		{"/home/.cache/file.txt", true},
		{".hidden", true},
		{"./data/file.txt", false},
		{"../data/file.txt", false},
		{"/a/b/c.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isHidden(tt.path))
		})
	}
}

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	changes := make(chan []string, 4)
	w := NewWatcher(normalisers.NewDefaultRegistry(), func(_ context.Context, paths []string) {
		changes <- paths
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Run(ctx, root))
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "notes.md"), "hello")
	writeFile(t, filepath.Join(root, "skip.bin"), "binary")

	select {
	case paths := <-changes:
		assert.Equal(t, []string{filepath.Join(root, "notes.md")}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string
	w := NewWatcher(normalisers.NewDefaultRegistry(), func(_ context.Context, paths []string) {
		mu.Lock()
		calls = append(calls, paths)
		mu.Unlock()
	}, WithDebounce(30*time.Millisecond))

	ctx := context.Background()
	w.schedule(ctx, "b.txt")
	w.schedule(ctx, "a.txt")
	w.schedule(ctx, "b.txt")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.txt", "b.txt"}, calls[0])
}

func TestWatcher_CancelledContextSkipsFlush(t *testing.T) {
	called := false
	w := NewWatcher(normalisers.NewDefaultRegistry(), func(context.Context, []string) {
		called = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.pending["x.txt"] = struct{}{}
	w.flush(ctx)
	assert.False(t, called)
	assert.Empty(t, w.pending)
}
