// Package arxiv downloads arXiv papers as PDF and extracts their text.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/pdf"
)

// DefaultTimeout bounds a paper download.
const DefaultTimeout = 30 * time.Second

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves the full text of an arXiv paper.
type Fetcher struct {
	client *http.Client
	pdf    driven.Extractor
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithPDFExtractor sets the extractor used for the downloaded paper.
func WithPDFExtractor(e driven.Extractor) Option {
	return func(f *Fetcher) {
		if e != nil {
			f.pdf = e
		}
	}
}

// New creates an arXiv fetcher. Pages are joined with a single space.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
		pdf:    pdf.New(pdf.WithPageSeparator(" ")),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Kind returns the arXiv task kind.
func (f *Fetcher) Kind() domain.TaskKind {
	return domain.TaskKindArxiv
}

// PDFURL maps an abstract page URL to its PDF URL.
// URLs that already point at a PDF keep their path.
func PDFURL(task string) string {
	u := strings.Replace(task, "/abs/", "/pdf/", 1)
	if !strings.HasSuffix(u, ".pdf") {
		u += ".pdf"
	}
	return u
}

// Fetch downloads the paper named by task and extracts its text.
func (f *Fetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	pdfURL := PDFURL(task)
	logger.Debug("Downloading %s", pdfURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", pdfURL, domain.ErrInvalidURL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamHTTPError{URL: pdfURL, StatusCode: resp.StatusCode}
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pdfURL, err)
	}

	text, err := f.pdf.Extract(ctx, pdfURL, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pdfURL, err)
	}
	return &domain.RawDocument{
		Text:     text,
		Metadata: map[string]any{"pdf_url": pdfURL},
	}, nil
}
