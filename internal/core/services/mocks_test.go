package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// mockFetcher implements driven.Fetcher for testing.
type mockFetcher struct {
	kind    domain.TaskKind
	delay   map[string]time.Duration
	errs    map[string]error
	blockOn string

	mu      sync.Mutex
	fetched []string
}

func (m *mockFetcher) Kind() domain.TaskKind { return m.kind }

func (m *mockFetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, task)
	m.mu.Unlock()

	if task == m.blockOn {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d := m.delay[task]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.errs[task]; err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		Text:     "text of " + task,
		Metadata: map[string]any{"fetched_by": m.kind.String()},
	}, nil
}

func (m *mockFetcher) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// prefixClassifier classifies tasks by a "kind:" prefix.
type prefixClassifier struct{}

func (prefixClassifier) Classify(task string) (domain.TaskKind, error) {
	prefix, _, _ := strings.Cut(task, ":")
	for _, k := range domain.TaskKinds() {
		if k.String() == prefix {
			return k, nil
		}
	}
	return domain.TaskKindUnknown, &domain.UnsupportedTaskError{Task: task}
}

// wordCounter counts whitespace separated words.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

// mockEmbedder implements driven.EmbeddingService for testing.
// Each vector is {len(text), 1}. Batches containing failOn fail the next
// failures calls, or every call when failures is negative.
type mockEmbedder struct {
	failOn   string
	failures int
	short    bool

	mu    sync.Mutex
	calls int
	sizes []int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.sizes = append(m.sizes, len(texts))
	m.mu.Unlock()

	for _, text := range texts {
		if text == m.failOn {
			m.mu.Lock()
			fail := m.failures != 0
			if m.failures > 0 {
				m.failures--
			}
			m.mu.Unlock()
			if fail {
				return nil, fmt.Errorf("model rejected %q", text)
			}
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	if m.short {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// runeChunker splits each document into fixed rune windows.
type runeChunker struct {
	size int
}

func (c runeChunker) Name() string { return "rune-chunker" }

func (c runeChunker) Chunk(docs []domain.Document) []domain.TextChunk {
	var chunks []domain.TextChunk
	for i, doc := range docs {
		runes := []rune(doc.Text)
		for j := 0; j < len(runes); j += c.size {
			end := min(j+c.size, len(runes))
			chunks = append(chunks, domain.TextChunk{
				Text:          string(runes[j:end]),
				DocumentIndex: i,
				LocalIndex:    j,
				GlobalIndex:   len(chunks),
			})
		}
	}
	return chunks
}
