package driving

import (
	"context"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// TaskClassifier maps a task string to its source variant.
type TaskClassifier interface {
	Classify(task string) (domain.TaskKind, error)
}

// Ingestor fetches every task into one Document, preserving task order.
type Ingestor interface {
	Ingest(ctx context.Context, tasks []string) ([]domain.Document, error)
}

// Pipeline runs the full scrape, chunk, encode and aggregate flow.
type Pipeline interface {
	// Run returns a non-nil result alongside a *domain.EncodingError when only
	// the embedding step failed.
	Run(ctx context.Context, tasks []string) (*domain.IngestionResult, error)
}
