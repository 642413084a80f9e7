package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/logger"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

// treeNode holds one listing entry. Directories are replaced by their
// children when the tree is flattened, so output follows listing order.
type treeNode struct {
	block    string
	children []*treeNode
}

func (n *treeNode) flatten(blocks []string) []string {
	if n.block != "" {
		blocks = append(blocks, n.block)
	}
	for _, child := range n.children {
		blocks = child.flatten(blocks)
	}
	return blocks
}

// walker downloads one repository tree.
type walker struct {
	fetcher *RepoFetcher
	ref     RepoRef
	group   *workpool.Group
	sem     *semaphore.Weighted
}

// walkDir lists path and schedules its subdirectories and allow-listed files.
func (w *walker) walkDir(ctx context.Context, path string, node *treeNode) error {
	entries, err := w.fetcher.client.Contents(ctx, w.ref.Owner, w.ref.Repo, path, w.ref.Ref)
	if err != nil {
		return fmt.Errorf("list %s/%s/%s: %w", w.ref.Owner, w.ref.Repo, path, err)
	}

	node.children = make([]*treeNode, len(entries))
	for i, entry := range entries {
		child := &treeNode{}
		node.children[i] = child

		switch entry.GetType() {
		case "dir":
			w.group.Go(func() error {
				return w.walkDir(ctx, entry.GetPath(), child)
			})
		case "file":
			if !w.fetcher.extractors.Supports(entry.GetName()) {
				continue
			}
			w.group.Go(func() error {
				return w.readFile(ctx, entry, child)
			})
		}
	}
	return nil
}

// readFile downloads and renders one file while holding a download slot.
func (w *walker) readFile(ctx context.Context, entry *gh.RepositoryContent, node *treeNode) error {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.sem.Release(1)

	path := entry.GetPath()
	logger.Debug("Processing %s...", path)

	var content []byte
	if downloadURL := entry.GetDownloadURL(); downloadURL != "" {
		body, err := w.fetcher.client.Download(ctx, downloadURL)
		if err != nil {
			return fmt.Errorf("download %s: %w", path, err)
		}
		content = body
	} else {
		decoded, err := entry.GetContent()
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		content = []byte(decoded)
	}

	text, err := w.fetcher.extractors.Extract(ctx, entry.GetName(), content)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	node.block = domain.FileHeader(path) + text + "\n\n"
	return nil
}

// render joins file blocks with a newline.
func render(root *treeNode) (string, int) {
	blocks := root.flatten(nil)
	return strings.Join(blocks, "\n"), len(blocks)
}
