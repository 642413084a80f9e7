package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, results carry no embeddings.
//
// Implementations include:
//   - Replicate (all-mpnet-base-v2 predictions)
//   - OpenAI (text-embedding-3-small)
//   - Ollama (nomic-embed-text) through langchaingo
type EmbeddingService interface {
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
