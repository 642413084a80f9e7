package driven

import (
	"context"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// Fetcher turns a single task into the text of one document.
// Each TaskKind resolves to exactly one Fetcher.
type Fetcher interface {
	// Kind returns the task kind this fetcher handles.
	Kind() domain.TaskKind

	// Fetch retrieves and assembles the text for task.
	// Composite sources return the whole document or an error, never a partial one.
	Fetch(ctx context.Context, task string) (*domain.RawDocument, error)
}

// TokenCounter counts tokens with a fixed tokenizer.
type TokenCounter interface {
	domain.TokenCounter
}

// TranscriptSource retrieves the caption lines of a video.
type TranscriptSource interface {
	Transcript(ctx context.Context, videoID string) ([]string, error)
}

// PaperMetadata describes a paper returned by a metadata service.
type PaperMetadata struct {
	Title    string
	Authors  []string
	Year     string
	Venue    string
	URL      string
	Abstract string
}

// PaperMetadataSource resolves DOI or PMID identifiers.
type PaperMetadataSource interface {
	// Paper returns nil metadata without error when the identifier is unknown.
	Paper(ctx context.Context, identifier string) (*PaperMetadata, error)
}
