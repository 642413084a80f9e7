package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries after a rate limit response.
	MaxRetries = 3

	// DefaultAbuseBackoff is used when a secondary rate limit carries no Retry-After.
	DefaultAbuseBackoff = time.Minute
)

// Client wraps the go-github client with rate limiting and error translation.
// One Client and its RateLimiter serve every GitHub task of a run.
type Client struct {
	gh            *gh.Client
	http          *http.Client
	rateLimiter   *RateLimiter
	authenticated bool
	maxRetries    int
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	timeout    time.Duration
	rate       float64
	httpClient *http.Client
	maxRetries int
}

// WithBaseURL points the API client at another server, such as a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProactiveRate sets the token bucket rate in requests per second.
func WithProactiveRate(perSecond float64) ClientOption {
	return func(c *clientConfig) {
		c.rate = perSecond
	}
}

// WithHTTPClient sets the base HTTP client. Its transport is kept.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithMaxRetries sets how often a rate-limited call is retried after waiting.
func WithMaxRetries(n int) ClientOption {
	return func(c *clientConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a GitHub API client. A nil provider or an empty token
// yields an unauthenticated client.
func NewClient(ctx context.Context, tokens driven.TokenProvider, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout:    DefaultTimeout,
		rate:       DefaultProactiveRate,
		maxRetries: MaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var token string
	if tokens != nil {
		t, err := tokens.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
		token = t
	}

	base := cfg.httpClient
	if base == nil {
		base = &http.Client{}
	}

	httpClient := &http.Client{Transport: base.Transport, Timeout: cfg.timeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
		httpClient.Timeout = cfg.timeout
	} else {
		logger.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub access (60 requests/hour)")
	}

	client := gh.NewClient(httpClient)
	if cfg.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:            client,
		http:          httpClient,
		rateLimiter:   NewRateLimiter(cfg.rate),
		authenticated: token != "",
		maxRetries:    cfg.maxRetries,
	}, nil
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Contents lists a directory. A file path yields a single entry.
func (c *Client) Contents(ctx context.Context, owner, repo, path, ref string) ([]*gh.RepositoryContent, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	var file *gh.RepositoryContent
	dir, err := call(ctx, c, "get contents", func(ctx context.Context) ([]*gh.RepositoryContent, *gh.Response, error) {
		f, d, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
		file = f
		return d, resp, err
	})
	if err != nil {
		return nil, err
	}
	if file != nil {
		return []*gh.RepositoryContent{file}, nil
	}
	return dir, nil
}

// Download fetches the raw bytes behind a download_url.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.download(ctx, rawURL)
		if err != nil && IsRateLimited(err) && attempt < c.maxRetries {
			continue
		}
		return body, err
	}
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamHTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}

// PullRequest fetches a single pull request.
func (c *Client) PullRequest(ctx context.Context, ref ItemRef) (*gh.PullRequest, error) {
	return call(ctx, c, "get pull request", func(ctx context.Context) (*gh.PullRequest, *gh.Response, error) {
		return c.gh.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	})
}

// PullRequestDiff fetches the unified diff of a pull request.
func (c *Client) PullRequestDiff(ctx context.Context, ref ItemRef) (string, error) {
	return call(ctx, c, "get pull request diff", func(ctx context.Context) (string, *gh.Response, error) {
		return c.gh.PullRequests.GetRaw(ctx, ref.Owner, ref.Repo, ref.Number, gh.RawOptions{Type: gh.Diff})
	})
}

// ReviewComments lists every review comment of a pull request.
func (c *Client) ReviewComments(ctx context.Context, ref ItemRef) ([]*gh.PullRequestComment, error) {
	opts := &gh.PullRequestListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	return paginate(ctx, c, "list review comments", &opts.ListOptions,
		func(ctx context.Context) ([]*gh.PullRequestComment, *gh.Response, error) {
			return c.gh.PullRequests.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		})
}

// IssueComments lists every conversation comment of an issue or pull request.
func (c *Client) IssueComments(ctx context.Context, ref ItemRef) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	return paginate(ctx, c, "list issue comments", &opts.ListOptions,
		func(ctx context.Context) ([]*gh.IssueComment, *gh.Response, error) {
			return c.gh.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		})
}

// Issue fetches a single issue.
func (c *Client) Issue(ctx context.Context, ref ItemRef) (*gh.Issue, error) {
	return call(ctx, c, "get issue", func(ctx context.Context) (*gh.Issue, *gh.Response, error) {
		return c.gh.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	})
}

// call runs one API request behind the rate limiter, retrying after rate limit errors.
func call[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, *gh.Response, error)) (T, error) {
	v, _, err := callResp(ctx, c, op, fn)
	return v, err
}

func callResp[T any](
	ctx context.Context, c *Client, op string, fn func(context.Context) (T, *gh.Response, error),
) (T, *gh.Response, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return zero, nil, fmt.Errorf("rate limit wait: %w", err)
		}

		v, resp, err := fn(ctx)
		c.updateRateLimitFromResponse(resp)
		if err == nil {
			return v, resp, nil
		}

		wrapped := c.wrapError(err, op)
		if IsRateLimited(wrapped) && attempt < c.maxRetries {
			continue
		}
		return zero, resp, wrapped
	}
}

// paginate follows NextPage until the listing is exhausted.
func paginate[T any](
	ctx context.Context, c *Client, op string, page *gh.ListOptions,
	fn func(context.Context) ([]T, *gh.Response, error),
) ([]T, error) {
	var all []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, resp, err := callResp(ctx, c, op, fn)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		page.Page = resp.NextPage
	}
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		reset := rateLimitErr.Rate.Reset.Time
		c.rateLimiter.markExhausted(reset)
		return &RateLimitError{
			ResetAt:   reset,
			Remaining: 0,
			Limit:     rateLimitErr.Rate.Limit,
			URL:       requestURL(rateLimitErr.Response),
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		backoff := DefaultAbuseBackoff
		if d := abuseErr.GetRetryAfter(); d > 0 {
			backoff = d
		}
		reset := time.Now().Add(backoff)
		c.rateLimiter.markExhausted(reset)
		return &RateLimitError{
			ResetAt: reset,
			Limit:   c.rateLimiter.Limit(),
			URL:     requestURL(abuseErr.Response),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        requestURL(ghErr.Response),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

func requestURL(resp *http.Response) string {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}
