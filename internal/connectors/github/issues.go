package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure IssueFetcher implements the interface.
var _ driven.Fetcher = (*IssueFetcher)(nil)

// IssueFetcher renders an issue with its comments and the text of its repository.
type IssueFetcher struct {
	client *Client
	repos  *RepoFetcher
}

// NewIssueFetcher creates an issue fetcher.
func NewIssueFetcher(client *Client, repos *RepoFetcher) *IssueFetcher {
	return &IssueFetcher{client: client, repos: repos}
}

// Kind returns the issue task kind.
func (f *IssueFetcher) Kind() domain.TaskKind {
	return domain.TaskKindGithubIssue
}

// Fetch downloads the issue and its repository.
func (f *IssueFetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	ref, err := ParseIssueURL(task)
	if err != nil {
		return nil, err
	}

	issue, err := f.client.Issue(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch issue %d: %w", ref.Number, err)
	}
	comments, err := f.client.IssueComments(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch comments of issue %d: %w", ref.Number, err)
	}

	repoText, _, err := f.repos.FetchRepo(ctx, RepoRef{Owner: ref.Owner, Repo: ref.Repo})
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		Text: formatIssue(issue, comments) + RepositorySection + repoText,
		Metadata: map[string]any{
			"number":   issue.GetNumber(),
			"title":    issue.GetTitle(),
			"author":   issue.GetUser().GetLogin(),
			"state":    issue.GetState(),
			"comments": len(comments),
		},
	}, nil
}

// formatIssue renders issue details and comments in API order.
func formatIssue(issue *gh.Issue, comments []*gh.IssueComment) string {
	var b strings.Builder
	b.WriteString("# Issue Information\n\n")
	fmt.Fprintf(&b, "## Title: %s\n\n", issue.GetTitle())
	fmt.Fprintf(&b, "## Description:\n%s\n\n", issue.GetBody())
	b.WriteString("## Comments:\n")
	for _, c := range comments {
		fmt.Fprintf(&b, "\n### Comment by %s:\n%s\n", c.GetUser().GetLogin(), c.GetBody())
	}
	return b.String()
}
