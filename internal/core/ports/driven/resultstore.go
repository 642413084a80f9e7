package driven

import (
	"context"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// StoredRun summarises a persisted pipeline run.
type StoredRun struct {
	ID         string
	Tasks      []string
	Documents  int
	Chunks     int
	Dimensions int
}

// ResultStore persists ingestion results.
type ResultStore interface {
	// SaveResult stores the result under runID, replacing any previous run with that ID.
	SaveResult(ctx context.Context, runID string, tasks []string, result *domain.IngestionResult) error

	// GetResult loads a stored result. Returns domain.ErrNotFound for unknown IDs.
	GetResult(ctx context.Context, runID string) (*domain.IngestionResult, error)

	// ListRuns returns stored runs, newest first.
	ListRuns(ctx context.Context) ([]StoredRun, error)

	// Close releases resources.
	Close() error
}
