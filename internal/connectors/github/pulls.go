package github

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// RepositorySection separates item details from the repository text.
const RepositorySection = "\n\n# Repository Content\n\n"

// Ensure PullRequestFetcher implements the interface.
var _ driven.Fetcher = (*PullRequestFetcher)(nil)

// PullRequestFetcher renders a pull request with its diff, comments and
// the text of its repository.
type PullRequestFetcher struct {
	client *Client
	repos  *RepoFetcher
}

// NewPullRequestFetcher creates a pull request fetcher.
func NewPullRequestFetcher(client *Client, repos *RepoFetcher) *PullRequestFetcher {
	return &PullRequestFetcher{client: client, repos: repos}
}

// Kind returns the pull request task kind.
func (f *PullRequestFetcher) Kind() domain.TaskKind {
	return domain.TaskKindGithubPullRequest
}

// comment unifies conversation and review comments for interleaving.
type comment struct {
	login    string
	body     string
	position *int
	review   bool
	path     string
	line     *int
}

func (c comment) render() string {
	if !c.review {
		return fmt.Sprintf("\n### Comment by %s:\n%s\n", c.login, c.body)
	}
	line := ""
	if c.line != nil {
		line = fmt.Sprint(*c.line)
	}
	return fmt.Sprintf("\n### Review Comment by %s:\n%s\n\nPath: %s\nLine: %s\n\n",
		c.login, c.body, c.path, line)
}

// Fetch downloads the pull request and its repository.
func (f *PullRequestFetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	ref, err := ParsePullRequestURL(task)
	if err != nil {
		return nil, err
	}

	pr, err := f.client.PullRequest(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request %d: %w", ref.Number, err)
	}
	diff, err := f.client.PullRequestDiff(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch diff of pull request %d: %w", ref.Number, err)
	}
	issueComments, err := f.client.IssueComments(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch comments of pull request %d: %w", ref.Number, err)
	}
	reviewComments, err := f.client.ReviewComments(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch review comments of pull request %d: %w", ref.Number, err)
	}

	repoText, _, err := f.repos.FetchRepo(ctx, RepoRef{Owner: ref.Owner, Repo: ref.Repo})
	if err != nil {
		return nil, err
	}

	comments := mergeComments(issueComments, reviewComments)
	text := formatPullRequest(ref, pr, diff, comments) + RepositorySection + repoText

	return &domain.RawDocument{
		Text: text,
		Metadata: map[string]any{
			"number": pr.GetNumber(),
			"title":  pr.GetTitle(),
			"author": pr.GetUser().GetLogin(),
			"state":  pr.GetState(),
			"base":   pr.GetBase().GetRef(),
			"head":   pr.GetHead().GetLabel(),
		},
	}, nil
}

// mergeComments orders conversation then review comments by diff position.
// Comments without a position sort last, keeping their relative order.
func mergeComments(issue []*gh.IssueComment, review []*gh.PullRequestComment) []comment {
	all := make([]comment, 0, len(issue)+len(review))
	for _, c := range issue {
		all = append(all, comment{login: c.GetUser().GetLogin(), body: c.GetBody()})
	}
	for _, c := range review {
		all = append(all, comment{
			login:    c.GetUser().GetLogin(),
			body:     c.GetBody(),
			position: c.Position,
			review:   true,
			path:     c.GetPath(),
			line:     c.OriginalLine,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		pi, pj := all[i].position, all[j].position
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi < *pj
	})
	return all
}

// formatPullRequest renders pull request details, then each diff line
// followed by the comments anchored at its index. Comments that match no
// line are appended after the diff.
func formatPullRequest(ref ItemRef, pr *gh.PullRequest, diff string, comments []comment) string {
	var b strings.Builder
	b.WriteString("# Pull Request Information\n\n")
	fmt.Fprintf(&b, "## Title: %s\n\n", pr.GetTitle())
	fmt.Fprintf(&b, "## Description:\n%s\n\n", pr.GetBody())
	b.WriteString("## Merge Details:\n")
	fmt.Fprintf(&b, "%s wants to merge %d commit into %s:%s from %s\n\n",
		pr.GetUser().GetLogin(), pr.GetCommits(), ref.Owner, pr.GetBase().GetRef(), pr.GetHead().GetLabel())
	b.WriteString("## Diff and Comments:\n")

	lines := strings.Split(diff, "\n")
	anchored := make(map[int][]comment)
	var unmatched []comment
	for _, c := range comments {
		if c.position == nil || *c.position < 0 || *c.position >= len(lines) {
			unmatched = append(unmatched, c)
			continue
		}
		anchored[*c.position] = append(anchored[*c.position], c)
	}

	for i, line := range lines {
		b.WriteString(line + "\n")
		for _, c := range anchored[i] {
			b.WriteString(c.render())
		}
	}
	for _, c := range unmatched {
		b.WriteString(c.render())
	}
	return b.String()
}
