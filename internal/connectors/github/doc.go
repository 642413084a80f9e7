// Package github implements fetchers for GitHub repositories, pull requests
// and issues.
//
// # Architecture
//
// Every fetcher implements [driven.Fetcher] and shares one Client:
//
//   - Client: wraps go-github with rate limiting and error translation
//   - RateLimiter: throttles requests and honours the API quota headers
//   - RepoFetcher: walks the contents API and concatenates allow-listed files
//   - PullRequestFetcher: renders a PR with its diff, comments and repository
//   - IssueFetcher: renders an issue with its comments and repository
//
// # Authentication
//
// A Personal Access Token is read from the TokenProvider. Without one the
// client runs unauthenticated, which GitHub limits to 60 requests per hour.
//
// # Rate Limiting
//
// The limiter combines two strategies:
//
//  1. Proactive throttling: a token bucket spaces requests out.
//
//  2. Reactive handling: X-RateLimit-Remaining and X-RateLimit-Reset are read
//     from every response. Once the quota is exhausted, callers wait until one
//     second past the reset time. Only the waiting goroutine is suspended.
//
// # Document Structure
//
// Repository text is a sequence of file blocks in tree order:
//
//	# ---
//	# Filename: {path}
//	# ---
//
//	{content}
//
// Pull request and issue documents end with a "# Repository Content"
// section holding the repository text.
//
// # Error Handling
//
// Any failed API call or download fails the whole fetch with an error that
// unwraps to [domain.UpstreamHTTPError]. Sibling downloads are cancelled.
package github
