package driven

import "github.com/custodia-labs/bookwyrm/internal/core/domain"

// Chunker splits documents into ordered text chunks.
type Chunker interface {
	// Name returns the processor name for logging.
	Name() string

	// Chunk flattens docs into chunks. The same input always yields the same
	// chunks, tagged with document, local and global indices.
	Chunk(docs []domain.Document) []domain.TextChunk
}
