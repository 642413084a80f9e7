// Package ollama provides an embedding service adapter for a local Ollama
// server, built on langchaingo's embedder.
package ollama

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	lcollama "github.com/tmc/langchaingo/llms/ollama"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	BaseURL string
	Model   string
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	llm, err := lcollama.New(
		lcollama.WithServerURL(cfg.BaseURL),
		lcollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: create client: %w", err)
	}

	// Chunk text is embedded verbatim.
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("ollama: create embedder: %w", err)
	}

	return &EmbeddingService{embedder: embedder, model: cfg.Model}, nil
}

// EmbedBatch generates one embedding per text, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d texts: %w",
			len(vectors), len(texts), domain.ErrDimensionMismatch)
	}
	return vectors, nil
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
