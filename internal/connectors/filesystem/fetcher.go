package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher concatenates the allow-listed files below a local path.
type Fetcher struct {
	extractors driven.ExtractorRegistry
	pool       *workpool.Pool
}

// New creates a local folder fetcher. File reads fan out through pool.
func New(extractors driven.ExtractorRegistry, pool *workpool.Pool) *Fetcher {
	return &Fetcher{extractors: extractors, pool: pool}
}

// Kind returns the local folder task kind.
func (f *Fetcher) Kind() domain.TaskKind {
	return domain.TaskKindLocalFolder
}

// Fetch reads every allow-listed file below the path named by task.
func (f *Fetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	paths, err := f.Collect(task)
	if err != nil {
		return nil, err
	}

	blocks := make([]string, len(paths))
	group, gctx := f.pool.NewGroup(ctx)
	for i, path := range paths {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			block, err := f.readFile(gctx, path)
			if err != nil {
				return err
			}
			blocks[i] = block
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("read folder %s: %w", task, err)
	}

	logger.Info("Read %d files from %s", len(paths), task)
	return &domain.RawDocument{
		Text: strings.Join(blocks, "\n"),
		Metadata: map[string]any{
			"path":  task,
			"files": len(paths),
		},
	}, nil
}

// Collect returns the allow-listed regular files below root in lexical order.
func (f *Fetcher) Collect(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("folder %s: %w", root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if f.extractors.Supports(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

func (f *Fetcher) readFile(ctx context.Context, path string) (string, error) {
	logger.Debug("Processing %s...", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := f.extractors.Extract(ctx, filepath.Base(path), content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return domain.FileHeader(path) + text + "\n\n", nil
}
