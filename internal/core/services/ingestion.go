package services

import (
	"context"
	"fmt"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driving"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// Ingestor fetches tasks concurrently and returns one Document per task in
// task order. The first failure cancels every other fetch.
type Ingestor struct {
	classifier    driving.TaskClassifier
	fetchers      map[domain.TaskKind]driven.Fetcher
	counter       driven.TokenCounter
	maxConcurrent int
	taskTimeout   time.Duration
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithClassifier replaces the default classifier.
func WithClassifier(c driving.TaskClassifier) IngestorOption {
	return func(i *Ingestor) {
		if c != nil {
			i.classifier = c
		}
	}
}

// WithMaxConcurrentTasks bounds the number of tasks fetched at once.
// Non-positive values remove the bound.
func WithMaxConcurrentTasks(n int) IngestorOption {
	return func(i *Ingestor) {
		i.maxConcurrent = n
	}
}

// WithTaskTimeout bounds each task. Zero disables the bound.
func WithTaskTimeout(d time.Duration) IngestorOption {
	return func(i *Ingestor) {
		i.taskTimeout = d
	}
}

// NewIngestor creates an ingestor. Each fetcher serves the kind it reports;
// a later fetcher for the same kind replaces an earlier one.
func NewIngestor(fetchers []driven.Fetcher, counter driven.TokenCounter, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		classifier: NewClassifier(),
		fetchers:   make(map[domain.TaskKind]driven.Fetcher, len(fetchers)),
		counter:    counter,
	}
	for _, f := range fetchers {
		i.fetchers[f.Kind()] = f
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest classifies every task, then fetches them concurrently.
// No fetch starts when any task is unsupported.
func (i *Ingestor) Ingest(ctx context.Context, tasks []string) ([]domain.Document, error) {
	fetchers := make([]driven.Fetcher, len(tasks))
	kinds := make([]domain.TaskKind, len(tasks))
	for idx, task := range tasks {
		kind, err := i.classifier.Classify(task)
		if err != nil {
			return nil, &domain.TaskError{Index: idx, Task: task, Kind: kind, Err: err}
		}
		f, ok := i.fetchers[kind]
		if !ok {
			err := fmt.Errorf("no fetcher for %s: %w", kind, domain.ErrUnsupportedTask)
			return nil, &domain.TaskError{Index: idx, Task: task, Kind: kind, Err: err}
		}
		kinds[idx] = kind
		fetchers[idx] = f
		logger.Debug("Task %d %q classified as %s", idx, task, kind)
	}

	docs := make([]domain.Document, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	if i.maxConcurrent > 0 {
		g.SetLimit(i.maxConcurrent)
	}

	for idx, task := range tasks {
		g.Go(func() error {
			doc, err := i.fetch(gctx, fetchers[idx], task)
			if err != nil {
				return &domain.TaskError{Index: idx, Task: task, Kind: kinds[idx], Err: err}
			}
			docs[idx] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Ingested %d documents", len(docs))
	return docs, nil
}

func (i *Ingestor) fetch(ctx context.Context, f driven.Fetcher, task string) (domain.Document, error) {
	if i.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := f.Fetch(ctx, task)
	if err != nil {
		return domain.Document{}, err
	}

	metadata := make(map[string]any, len(raw.Metadata)+1)
	maps.Copy(metadata, raw.Metadata)
	metadata["kind"] = f.Kind().String()

	doc := domain.NewDocument(raw.Text, task, metadata, i.counter)
	logger.Info("Fetched %s: %d chars, %d tokens in %s",
		task, doc.CharCount, doc.TokenCount, time.Since(start).Round(time.Millisecond))
	return doc, nil
}
