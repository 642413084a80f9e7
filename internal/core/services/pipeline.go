package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driving"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline runs ingest, chunk and encode, and aggregates the result.
type Pipeline struct {
	ingestor     driving.Ingestor
	chunker      driven.Chunker
	batcher      *EmbeddingBatcher
	store        driven.ResultStore
	allowMissing bool
	newRunID     func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBatcher enables the encode step.
func WithBatcher(b *EmbeddingBatcher) PipelineOption {
	return func(p *Pipeline) {
		p.batcher = b
	}
}

// WithResultStore persists every successful run.
func WithResultStore(store driven.ResultStore) PipelineOption {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithAllowMissingEmbeddings persists runs whose encode step failed.
func WithAllowMissingEmbeddings(allow bool) PipelineOption {
	return func(p *Pipeline) {
		p.allowMissing = allow
	}
}

// WithRunIDGenerator replaces the UUID run ID generator.
func WithRunIDGenerator(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// NewPipeline creates a pipeline. Without a batcher results carry no embeddings.
func NewPipeline(ingestor driving.Ingestor, chunker driven.Chunker, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ingestor: ingestor,
		chunker:  chunker,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes tasks into an IngestionResult. When only the encode step
// fails, the result is returned without embeddings together with the
// *domain.EncodingError.
func (p *Pipeline) Run(ctx context.Context, tasks []string) (*domain.IngestionResult, error) {
	runID := p.newRunID()
	start := time.Now()
	logger.Info("Run %s: processing %d tasks", runID, len(tasks))

	docs, err := p.ingestor.Ingest(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	chunks := p.chunker.Chunk(docs)
	logger.Info("Run %s: chunked %d documents into %d chunks with %s", runID, len(docs), len(chunks), p.chunker.Name())

	result := &domain.IngestionResult{
		RunID:     runID,
		Documents: domain.Records(docs),
		Chunks:    chunks,
	}

	var encodeErr error
	if p.batcher != nil {
		logger.Info("Run %s: encoding %d chunks with %s", runID, len(chunks), p.batcher.ModelName())
		embeddings, err := p.batcher.Encode(ctx, chunks)
		if err != nil {
			logger.Error(err, "Run %s: encoding chunks", runID)
			encodeErr = err
		} else {
			result.Embeddings = embeddings
			logger.Info("Run %s: %d embeddings of %d dimensions", runID, len(embeddings), result.Dimensions())
		}
	}

	if p.store != nil && (encodeErr == nil || p.allowMissing) {
		if err := p.store.SaveResult(ctx, runID, tasks, result); err != nil {
			return result, errors.Join(encodeErr, fmt.Errorf("save result: %w", err))
		}
		logger.Debug("Run %s: saved", runID)
	}

	logger.Info("Run %s: finished in %s (%d documents, %d chunks)",
		runID, time.Since(start).Round(time.Millisecond), len(result.Documents), len(result.Chunks))
	return result, encodeErr
}
