package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

// RepoRef locates a repository directory.
type RepoRef struct {
	Owner string
	Repo  string
	// Ref is the branch, tag or commit; empty means the default branch.
	Ref string
	// Path is the subdirectory to start from; empty means the root.
	Path string
}

// ItemRef locates a pull request or issue.
type ItemRef struct {
	Owner  string
	Repo   string
	Number int
}

// RepoURL returns the web URL of the item's repository.
func (r ItemRef) RepoURL() string {
	return "https://github.com/" + r.Owner + "/" + r.Repo
}

func pathSegments(raw string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, domain.ErrInvalidURL)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return nil, fmt.Errorf("%q: %w", raw, ErrNotGitHubURL)
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 2 {
		return nil, fmt.Errorf("%q has no owner/repo: %w", raw, domain.ErrInvalidURL)
	}
	segs[1] = strings.TrimSuffix(segs[1], ".git")
	return segs, nil
}

// ParseRepoURL parses https://github.com/{owner}/{repo}[/tree/{ref}/{path...}].
func ParseRepoURL(raw string) (RepoRef, error) {
	segs, err := pathSegments(raw)
	if err != nil {
		return RepoRef{}, err
	}

	ref := RepoRef{Owner: segs[0], Repo: segs[1]}
	if len(segs) > 3 && segs[2] == "tree" {
		ref.Ref = segs[3]
		ref.Path = strings.Join(segs[4:], "/")
	}
	return ref, nil
}

// ParsePullRequestURL parses https://github.com/{owner}/{repo}/pull/{number}.
func ParsePullRequestURL(raw string) (ItemRef, error) {
	return parseItemURL(raw, "pull")
}

// ParseIssueURL parses https://github.com/{owner}/{repo}/issues/{number}.
func ParseIssueURL(raw string) (ItemRef, error) {
	return parseItemURL(raw, "issues")
}

func parseItemURL(raw, kind string) (ItemRef, error) {
	segs, err := pathSegments(raw)
	if err != nil {
		return ItemRef{}, err
	}
	if len(segs) < 4 || segs[2] != kind {
		return ItemRef{}, fmt.Errorf("%q: %w", raw, ErrMissingNumber)
	}
	n, err := strconv.Atoi(segs[3])
	if err != nil || n <= 0 {
		return ItemRef{}, fmt.Errorf("%q: %w", raw, ErrMissingNumber)
	}
	return ItemRef{Owner: segs[0], Repo: segs[1], Number: n}, nil
}
