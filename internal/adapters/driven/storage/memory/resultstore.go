package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
type ResultStore struct {
	mu    sync.RWMutex
	runs  map[string]storedResult
	order []string
}

type storedResult struct {
	tasks  []string
	result domain.IngestionResult
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		runs: make(map[string]storedResult),
	}
}

// SaveResult stores a copy of result under runID.
func (s *ResultStore) SaveResult(_ context.Context, runID string, tasks []string, result *domain.IngestionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == runID })
	}
	copied := *result
	copied.RunID = runID
	copied.Documents = slices.Clone(result.Documents)
	copied.Chunks = slices.Clone(result.Chunks)
	if result.Embeddings != nil {
		copied.Embeddings = make([][]float32, len(result.Embeddings))
		for i, row := range result.Embeddings {
			copied.Embeddings[i] = slices.Clone(row)
		}
	}
	s.runs[runID] = storedResult{tasks: slices.Clone(tasks), result: copied}
	s.order = append(s.order, runID)
	return nil
}

// GetResult retrieves a stored result.
func (s *ResultStore) GetResult(_ context.Context, runID string) (*domain.IngestionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result := stored.result
	return &result, nil
}

// ListRuns returns stored runs, newest first.
func (s *ResultStore) ListRuns(_ context.Context) ([]driven.StoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]driven.StoredRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		stored := s.runs[id]
		runs = append(runs, driven.StoredRun{
			ID:         id,
			Tasks:      stored.tasks,
			Documents:  len(stored.result.Documents),
			Chunks:     len(stored.result.Chunks),
			Dimensions: stored.result.Dimensions(),
		})
	}
	return runs, nil
}

// Close is a no-op.
func (s *ResultStore) Close() error {
	return nil
}
