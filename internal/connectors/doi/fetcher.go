package doi

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher renders paper metadata as a markdown document.
type Fetcher struct {
	source driven.PaperMetadataSource
}

// New creates a fetcher. A nil source uses Semantic Scholar.
func New(source driven.PaperMetadataSource) *Fetcher {
	if source == nil {
		source = NewSemanticScholar()
	}
	return &Fetcher{source: source}
}

// Kind returns the DOI/PMID task kind.
func (f *Fetcher) Kind() domain.TaskKind {
	return domain.TaskKindDoiOrPmid
}

// Fetch looks up the identifier named by task.
func (f *Fetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	paper, err := f.source.Paper(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("lookup paper %s: %w", task, err)
	}
	if paper == nil {
		logger.Warn("No metadata found for %s", task)
		return &domain.RawDocument{Metadata: map[string]any{"identifier": task}}, nil
	}

	return &domain.RawDocument{
		Text: Format(paper),
		Metadata: map[string]any{
			"identifier": task,
			"title":      paper.Title,
			"year":       paper.Year,
		},
	}, nil
}

// Format renders paper metadata. Missing fields render as empty strings.
func Format(p *driven.PaperMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Title: %s\n\n", p.Title)
	fmt.Fprintf(&b, "## Authors: %s\n\n", strings.Join(p.Authors, ", "))
	fmt.Fprintf(&b, "## Year: %s\n\n", p.Year)
	fmt.Fprintf(&b, "## Venue: %s\n\n", p.Venue)
	fmt.Fprintf(&b, "## URL: %s\n\n", p.URL)
	fmt.Fprintf(&b, "## Abstract:\n%s\n", p.Abstract)
	return b.String()
}
