package github

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrNotGitHubURL indicates the task is not a github.com URL.
	ErrNotGitHubURL = errors.New("github: not a github.com url")

	// ErrMissingNumber indicates a PR or issue URL without a number.
	ErrMissingNumber = errors.New("github: missing pull request or issue number")
)

// RateLimitError represents a rate limit exceeded error with reset time.
// The client waits and retries on it, so callers only see it once retries run out.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
	URL       string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Unwrap exposes the failed request as an upstream HTTP error.
func (e *RateLimitError) Unwrap() error {
	return &domain.UpstreamHTTPError{URL: e.URL, StatusCode: 403}
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap exposes the failed request as an upstream HTTP error.
func (e *APIError) Unwrap() error {
	return &domain.UpstreamHTTPError{URL: e.URL, StatusCode: e.StatusCode}
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return statusOf(err) == 404
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return statusOf(err) == 401
}

func statusOf(err error) int {
	var upstream *domain.UpstreamHTTPError
	if errors.As(err, &upstream) {
		return upstream.StatusCode
	}
	return 0
}
