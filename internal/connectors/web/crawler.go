package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/html"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/pdf"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

const (
	// DefaultMaxDepth is the default number of link hops from the seed.
	DefaultMaxDepth = 2

	// DefaultRequestTimeout bounds each page request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultCrawlTimeout bounds a whole crawl.
	DefaultCrawlTimeout = 5 * time.Minute

	// EncodingSkipped replaces the text of pages that cannot be decoded.
	EncodingSkipped = "Skipped due to encoding issues."
)

// Ensure Crawler implements the interface.
var _ driven.Fetcher = (*Crawler)(nil)

// Crawler fetches a site starting at a seed URL.
type Crawler struct {
	client       *http.Client
	pool         *workpool.Pool
	pdf          driven.Extractor
	maxDepth     int
	includePDFs  bool
	ignoreEPUBs  bool
	crawlTimeout time.Duration
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets how many link hops are followed from the seed.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// WithIncludePDFs controls whether PDF responses are extracted.
func WithIncludePDFs(include bool) Option {
	return func(c *Crawler) {
		c.includePDFs = include
	}
}

// WithIgnoreEPUBs controls whether EPUB responses are silently dropped.
func WithIgnoreEPUBs(ignore bool) Option {
	return func(c *Crawler) {
		c.ignoreEPUBs = ignore
	}
}

// WithCrawlTimeout bounds a whole crawl. Zero disables the bound.
func WithCrawlTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.crawlTimeout = d
	}
}

// WithHTTPClient sets the client used for page requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Crawler) {
		if client != nil {
			c.client = client
		}
	}
}

// WithPDFExtractor sets the extractor used for PDF responses.
func WithPDFExtractor(e driven.Extractor) Option {
	return func(c *Crawler) {
		if e != nil {
			c.pdf = e
		}
	}
}

// New creates a crawler that fans out page requests through pool.
func New(pool *workpool.Pool, opts ...Option) *Crawler {
	c := &Crawler{
		client:       &http.Client{Timeout: DefaultRequestTimeout},
		pool:         pool,
		pdf:          pdf.New(pdf.WithPageSeparator("")),
		maxDepth:     DefaultMaxDepth,
		includePDFs:  true,
		ignoreEPUBs:  true,
		crawlTimeout: DefaultCrawlTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind returns the web content task kind.
func (c *Crawler) Kind() domain.TaskKind {
	return domain.TaskKindWebContent
}

// Fetch crawls the site rooted at task.
func (c *Crawler) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	text, pages, err := c.Crawl(ctx, task)
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		Text: text,
		Metadata: map[string]any{
			"url":   task,
			"pages": pages,
		},
	}, nil
}

// Crawl returns the concatenated page fragments and the number of pages visited.
//
// Pages are visited in depth-first pre-order with a single visited set, so the
// output does not depend on the pool size. The links of a visited page are
// requested ahead through the pool while the walk descends into the first one.
func (c *Crawler) Crawl(ctx context.Context, seed string) (string, int, error) {
	if c.crawlTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, c.crawlTimeout)
		defer timeoutCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := c.pool.NewGroup(ctx)
	state := &crawlState{
		seed:    seed,
		visited: make(map[string]bool),
		fetches: make(map[string]*response),
		group:   group,
	}
	root := &page{}
	err := c.visit(gctx, state, root, seed, 0)
	if err != nil {
		cancel()
	}
	// Prefetches never fail the group; their errors surface when visited.
	_ = group.Wait()
	if err != nil {
		return "", 0, fmt.Errorf("crawl %s: %w", seed, err)
	}

	var b strings.Builder
	root.render(&b)
	pages := state.count()
	logger.Info("Crawled %d pages from %s", pages, seed)
	return b.String(), pages, nil
}

// response is the outcome of one page request. done is closed once the
// other fields are set.
type response struct {
	done        chan struct{}
	body        []byte
	contentType string
	err         error
}

// crawlState is shared by every page of one crawl.
type crawlState struct {
	seed  string
	group *workpool.Group

	mu      sync.Mutex
	visited map[string]bool
	fetches map[string]*response
}

// claim marks url visited and reports whether the caller should fetch it.
func (s *crawlState) claim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visited[url] {
		return false
	}
	s.visited[url] = true
	return true
}

func (s *crawlState) isVisited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited[url]
}

func (s *crawlState) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// page holds the fragment of one URL followed by the pages it linked to.
type page struct {
	fragment string
	children []*page
}

func (p *page) render(b *strings.Builder) {
	b.WriteString(p.fragment)
	for _, child := range p.children {
		child.render(b)
	}
}

// prefetch starts the request for url once per crawl.
func (c *Crawler) prefetch(ctx context.Context, state *crawlState, url string) *response {
	state.mu.Lock()
	if r, ok := state.fetches[url]; ok {
		state.mu.Unlock()
		return r
	}
	r := &response{done: make(chan struct{})}
	state.fetches[url] = r
	state.mu.Unlock()

	state.group.Go(func() error {
		defer close(r.done)
		r.body, r.contentType, r.err = c.get(ctx, url)
		return nil
	})
	return r
}

func (c *Crawler) await(ctx context.Context, state *crawlState, url string) ([]byte, string, error) {
	r := c.prefetch(ctx, state, url)
	select {
	case <-r.done:
		return r.body, r.contentType, r.err
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

func (c *Crawler) visit(ctx context.Context, state *crawlState, node *page, url string, depth int) error {
	if depth > c.maxDepth || !state.claim(url) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debug("Crawling %s (depth %d)", url, depth)

	body, contentType, err := c.await(ctx, state, url)
	if err != nil {
		return err
	}

	switch {
	case strings.Contains(contentType, "text/html"):
		links := c.htmlFragment(node, state.seed, url, contentType, body)
		if depth < c.maxDepth {
			for _, link := range links {
				if !state.isVisited(link) {
					c.prefetch(ctx, state, link)
				}
			}
		}
		for _, link := range links {
			child := &page{}
			node.children = append(node.children, child)
			if err := c.visit(ctx, state, child, link, depth+1); err != nil {
				return err
			}
		}

	case c.includePDFs && strings.Contains(contentType, "application/pdf"):
		text, err := c.pdf.Extract(ctx, url, body)
		if err != nil {
			return fmt.Errorf("extract pdf %s: %w", url, err)
		}
		node.fragment = fmt.Sprintf("\n\n# PDF URL: %s\n%s", url, text)

	case c.ignoreEPUBs && strings.Contains(contentType, "application/epub"):
		// Dropped.

	default:
		node.fragment = fmt.Sprintf("\n\n# URL: %s\nUnsupported content type: %s", url, contentType)
	}
	return nil
}

// htmlFragment fills node with the page text and returns the links to follow.
func (c *Crawler) htmlFragment(node *page, seed, url, contentType string, body []byte) []string {
	text, err := decode(contentType, body)
	if err != nil {
		logger.Info("Skipping URL %s due to encoding issues.", url)
		node.fragment = fmt.Sprintf("\n\n# URL: %s\n%s", url, EncodingSkipped)
		return nil
	}

	parsed, err := html.Parse(strings.NewReader(text))
	if err != nil {
		logger.Info("Skipping URL %s due to encoding issues.", url)
		node.fragment = fmt.Sprintf("\n\n# URL: %s\n%s", url, EncodingSkipped)
		return nil
	}
	node.fragment = fmt.Sprintf("\n\n# URL: %s\n%s", url, parsed.Text)

	var links []string
	for _, href := range parsed.Links {
		if strings.HasPrefix(href, "http") && SameHost(seed, href) && WithinDepth(seed, href, c.maxDepth) {
			links = append(links, href)
		}
	}
	return links
}

func (c *Crawler) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request %s: %w: %v", url, domain.ErrInvalidURL, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &domain.UpstreamHTTPError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", url, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// decode returns body as UTF-8 text using the charset declared in contentType.
func decode(contentType string, body []byte) (string, error) {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = strings.ToLower(params["charset"])
	}
	if label == "" || label == "utf-8" || label == "utf8" {
		if !utf8.Valid(body) {
			return "", domain.ErrEncoding
		}
		return string(body), nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("charset %s: %w", label, domain.ErrEncoding)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("charset %s: %w", label, domain.ErrEncoding)
	}
	return string(decoded), nil
}
