// Package chunker splits documents into fixed-size character windows.
package chunker

import (
	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 0

// Processor splits document text into fixed-size chunks.
// Sizes are measured in runes, never splitting a UTF-8 sequence.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Chunk splits every document in order. GlobalIndex runs from zero across
// all documents without gaps. Empty documents produce no chunks.
func (p *Processor) Chunk(docs []domain.Document) []domain.TextChunk {
	var chunks []domain.TextChunk
	for i := range docs {
		chunks = p.appendDocument(chunks, i, docs[i].Text)
	}
	return chunks
}

func (p *Processor) appendDocument(chunks []domain.TextChunk, docIndex int, text string) []domain.TextChunk {
	runes := []rune(text)
	contentLen := len(runes)
	step := p.chunkSize - p.overlap

	for start := 0; start < contentLen; start += step {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.TextChunk{
			Text:          string(runes[start:end]),
			DocumentIndex: docIndex,
			LocalIndex:    start,
			GlobalIndex:   len(chunks),
		})

		// The last window already reaches the end when overlapping.
		if end == contentLen {
			break
		}
	}
	return chunks
}
