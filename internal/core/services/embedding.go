package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// Embedding batcher defaults.
const (
	DefaultBatchSize        = 200
	DefaultBatchConcurrency = 4
	DefaultRetryBackoff     = time.Second
)

// EmbeddingBatcher sends chunk texts to an embedding service in batches and
// reassembles the vectors in chunk order.
type EmbeddingBatcher struct {
	service     driven.EmbeddingService
	batchSize   int
	concurrency int
	maxRetries  uint64
	backoff     time.Duration
}

// BatcherOption configures an EmbeddingBatcher.
type BatcherOption func(*EmbeddingBatcher)

// WithBatchSize sets the number of texts per request. Non-positive values are ignored.
func WithBatchSize(n int) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithBatchConcurrency sets how many batches are in flight. Non-positive values are ignored.
func WithBatchConcurrency(n int) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRetries retries failed batches with exponential backoff starting at backoff.
func WithRetries(maxRetries int, backoff time.Duration) BatcherOption {
	return func(b *EmbeddingBatcher) {
		if maxRetries > 0 {
			b.maxRetries = uint64(maxRetries)
		}
		if backoff > 0 {
			b.backoff = backoff
		}
	}
}

// NewEmbeddingBatcher creates a batcher for service.
func NewEmbeddingBatcher(service driven.EmbeddingService, opts ...BatcherOption) *EmbeddingBatcher {
	b := &EmbeddingBatcher{
		service:     service,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultBatchConcurrency,
		backoff:     DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ModelName returns the model of the underlying service.
func (b *EmbeddingBatcher) ModelName() string {
	return b.service.ModelName()
}

// Encode returns one vector per chunk, in chunk order. Any failed batch fails
// the whole request with a *domain.EncodingError and a nil matrix.
func (b *EmbeddingBatcher) Encode(ctx context.Context, chunks []domain.TextChunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	if len(chunks) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	batch := 0
	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		texts := make([]string, end-start)
		for j := start; j < end; j++ {
			texts[j-start] = chunks[j].Text
		}

		n := batch
		g.Go(func() error {
			vectors, err := b.embed(gctx, texts)
			if err != nil {
				return &domain.EncodingError{Batch: n, Err: err}
			}
			if len(vectors) != len(texts) {
				err := fmt.Errorf("got %d vectors for %d texts: %w", len(vectors), len(texts), domain.ErrDimensionMismatch)
				return &domain.EncodingError{Batch: n, Err: err}
			}
			copy(out[start:end], vectors)
			logger.Debug("Encoded batch %d (%d texts)", n, len(texts))
			return nil
		})
		batch++
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("Encoded %d chunks in %d batches", len(chunks), batch)
	return out, nil
}

func (b *EmbeddingBatcher) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if b.maxRetries == 0 {
		return b.service.EmbedBatch(ctx, texts)
	}

	var vectors [][]float32
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(b.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		vectors, err = b.service.EmbedBatch(ctx, texts)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Debug("Embedding batch failed, retrying: %v", err)
		return retry.RetryableError(err)
	})
	return vectors, err
}
