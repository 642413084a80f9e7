package github

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

// DefaultMaxDownloads bounds concurrent file downloads per repository.
const DefaultMaxDownloads = 10

// Ensure RepoFetcher implements the interface.
var _ driven.Fetcher = (*RepoFetcher)(nil)

// RepoFetcher concatenates the allow-listed files of a repository.
type RepoFetcher struct {
	client       *Client
	extractors   driven.ExtractorRegistry
	pool         *workpool.Pool
	maxDownloads int64
}

// RepoOption configures a RepoFetcher.
type RepoOption func(*RepoFetcher)

// WithMaxDownloads sets the number of concurrent file downloads.
func WithMaxDownloads(n int) RepoOption {
	return func(f *RepoFetcher) {
		if n > 0 {
			f.maxDownloads = int64(n)
		}
	}
}

// NewRepoFetcher creates a repository fetcher. Directory listings fan out
// through pool.
func NewRepoFetcher(
	client *Client, extractors driven.ExtractorRegistry, pool *workpool.Pool, opts ...RepoOption,
) *RepoFetcher {
	f := &RepoFetcher{
		client:       client,
		extractors:   extractors,
		pool:         pool,
		maxDownloads: DefaultMaxDownloads,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Kind returns the repository task kind.
func (f *RepoFetcher) Kind() domain.TaskKind {
	return domain.TaskKindGithubRepo
}

// Fetch downloads the repository named by a github.com URL.
func (f *RepoFetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	ref, err := ParseRepoURL(task)
	if err != nil {
		return nil, err
	}

	text, files, err := f.FetchRepo(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		Text: text,
		Metadata: map[string]any{
			"owner": ref.Owner,
			"repo":  ref.Repo,
			"ref":   ref.Ref,
			"path":  ref.Path,
			"files": files,
		},
	}, nil
}

// FetchRepo returns the concatenated file blocks of ref and the file count.
// Any failed listing or download fails the whole fetch.
func (f *RepoFetcher) FetchRepo(ctx context.Context, ref RepoRef) (string, int, error) {
	group, gctx := f.pool.NewGroup(ctx)
	w := &walker{
		fetcher: f,
		ref:     ref,
		group:   group,
		sem:     semaphore.NewWeighted(f.maxDownloads),
	}

	root := &treeNode{}
	group.Go(func() error {
		return w.walkDir(gctx, ref.Path, root)
	})
	if err := group.Wait(); err != nil {
		return "", 0, fmt.Errorf("fetch repository %s/%s: %w", ref.Owner, ref.Repo, err)
	}

	text, files := render(root)
	logger.Info("Fetched %d files from %s/%s", files, ref.Owner, ref.Repo)
	return text, files, nil
}
