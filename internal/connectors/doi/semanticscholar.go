package doi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Semantic Scholar API root.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// DefaultTimeout bounds each metadata request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after 429 and 5xx responses.
	DefaultMaxRetries = 2

	// DefaultBackoff is the first retry delay. It doubles on each retry.
	DefaultBackoff = 500 * time.Millisecond
)

// Ensure SemanticScholar implements the interface.
var _ driven.PaperMetadataSource = (*SemanticScholar)(nil)

// SemanticScholar looks up papers by DOI or PMID.
type SemanticScholar struct {
	baseURL    string
	client     *http.Client
	maxRetries uint64
	backoff    time.Duration
}

// SourceOption configures a SemanticScholar source.
type SourceOption func(*SemanticScholar)

// WithBaseURL points the source at another API root.
func WithBaseURL(baseURL string) SourceOption {
	return func(s *SemanticScholar) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *SemanticScholar) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRetries sets the retry count and the first backoff delay.
func WithRetries(maxRetries uint64, backoff time.Duration) SourceOption {
	return func(s *SemanticScholar) {
		s.maxRetries = maxRetries
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// NewSemanticScholar creates a metadata source.
func NewSemanticScholar(opts ...SourceOption) *SemanticScholar {
	s := &SemanticScholar{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type paperResponse struct {
	Title    string          `json:"title"`
	Abstract *string         `json:"abstract"`
	Year     json.RawMessage `json:"year"`
	Venue    string          `json:"venue"`
	URL      string          `json:"url"`
	Authors  []author        `json:"authors"`
}

type author struct {
	Name string `json:"name"`
}

// Paper returns the metadata of identifier, or nil when it is unknown.
func (s *SemanticScholar) Paper(ctx context.Context, identifier string) (*driven.PaperMetadata, error) {
	endpoint := s.baseURL + "/v1/paper/" + identifier

	var body []byte
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		body, err = s.get(ctx, endpoint)
		var upstream *domain.UpstreamHTTPError
		if errors.As(err, &upstream) &&
			(upstream.StatusCode == http.StatusTooManyRequests || upstream.StatusCode >= 500) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var upstream *domain.UpstreamHTTPError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode paper %s: %w", identifier, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var resp paperResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode paper %s: %w", identifier, err)
	}

	paper := &driven.PaperMetadata{
		Title: resp.Title,
		Year:  yearString(resp.Year),
		Venue: resp.Venue,
		URL:   resp.URL,
	}
	if resp.Abstract != nil {
		paper.Abstract = *resp.Abstract
	}
	for _, a := range resp.Authors {
		paper.Authors = append(paper.Authors, a.Name)
	}
	return paper, nil
}

func (s *SemanticScholar) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", endpoint, domain.ErrInvalidURL)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamHTTPError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return body, nil
}

// yearString renders a JSON year that may be a number, a string or null.
func yearString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
