package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/normalisers"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

// fakeGitHub serves a small repository plus one pull request and one issue.
type fakeGitHub struct {
	t        *testing.T
	base     string
	files    map[string]string
	failPath string
}

func (f *fakeGitHub) entry(kind, path string) map[string]any {
	name := path[strings.LastIndex(path, "/")+1:]
	e := map[string]any{"type": kind, "name": name, "path": path}
	if kind == "file" {
		e["download_url"] = f.base + "/raw/" + path
	}
	return e
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch p := r.URL.Path; {
	case p == "/repos/o/r/contents/" || p == "/repos/o/r/contents":
		writeJSON(f.t, w, []map[string]any{
			f.entry("file", "README.md"),
			f.entry("dir", "src"),
			f.entry("file", "logo.png"),
			f.entry("file", "z.txt"),
		})
	case p == "/repos/o/r/contents/src":
		writeJSON(f.t, w, []map[string]any{
			f.entry("dir", "src/deep"),
			f.entry("file", "src/main.py"),
		})
	case p == "/repos/o/r/contents/src/deep":
		writeJSON(f.t, w, []map[string]any{f.entry("file", "src/deep/util.js")})
	case strings.HasPrefix(p, "/raw/"):
		path := strings.TrimPrefix(p, "/raw/")
		if path == f.failPath {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	case p == "/repos/o/r/pulls/5":
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			_, _ = w.Write([]byte("diff --git a/x b/x\n+added\n-removed"))
			return
		}
		writeJSON(f.t, w, map[string]any{
			"number":  5,
			"title":   "Add feature",
			"body":    "Does things",
			"state":   "open",
			"commits": 2,
			"user":    map[string]any{"login": "alice"},
			"base":    map[string]any{"ref": "main"},
			"head":    map[string]any{"label": "alice:feature"},
		})
	case p == "/repos/o/r/issues/5/comments":
		writeJSON(f.t, w, []map[string]any{
			{"body": "LGTM overall", "user": map[string]any{"login": "carol"}},
		})
	case p == "/repos/o/r/pulls/5/comments":
		writeJSON(f.t, w, []map[string]any{
			{"body": "why remove?", "position": 2, "path": "x", "original_line": 9, "user": map[string]any{"login": "bob"}},
			{"body": "nice", "position": 1, "path": "x", "original_line": 3, "user": map[string]any{"login": "dave"}},
			{"body": "stale", "position": 40, "path": "x", "user": map[string]any{"login": "erin"}},
		})
	case p == "/repos/o/r/issues/9":
		writeJSON(f.t, w, map[string]any{
			"number": 9,
			"title":  "Bug",
			"body":   "It breaks",
			"state":  "closed",
			"user":   map[string]any{"login": "frank"},
		})
	case p == "/repos/o/r/issues/9/comments":
		writeJSON(f.t, w, []map[string]any{
			{"body": "repro?", "user": map[string]any{"login": "gina"}},
			{"body": "fixed", "user": map[string]any{"login": "frank"}},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(f.t, w, map[string]any{"message": "Not Found"})
	}
}

func newFakeRepo(t *testing.T) (*fakeGitHub, *RepoFetcher, *Client) {
	t.Helper()
	fake := &fakeGitHub{t: t, files: map[string]string{
		"README.md":        "# Readme",
		"z.txt":            "last",
		"logo.png":         "\x89PNG",
		"src/main.py":      "print('hi')",
		"src/deep/util.js": "export {}",
	}}
	client, srv := newTestClient(t, nil, fake.ServeHTTP)
	fake.base = srv.URL

	pool, err := workpool.New(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	return fake, NewRepoFetcher(client, normalisers.NewDefaultRegistry(), pool, WithMaxDownloads(2)), client
}

const wantRepoText = "# ---\n# Filename: README.md\n# ---\n\n# Readme\n\n" +
	"\n# ---\n# Filename: src/deep/util.js\n# ---\n\nexport {}\n\n" +
	"\n# ---\n# Filename: src/main.py\n# ---\n\nprint('hi')\n\n" +
	"\n# ---\n# Filename: z.txt\n# ---\n\nlast\n\n"

func TestRepoFetcher_Fetch(t *testing.T) {
	_, fetcher, _ := newFakeRepo(t)
	assert.Equal(t, domain.TaskKindGithubRepo, fetcher.Kind())

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r")
	require.NoError(t, err)

	assert.Equal(t, wantRepoText, raw.Text)
	assert.Equal(t, 4, raw.Metadata["files"])
	assert.Equal(t, "o", raw.Metadata["owner"])
	assert.NotContains(t, raw.Text, "logo.png")
	assert.Equal(t, 4, domain.CountFiles(raw.Text))
}

func TestRepoFetcher_Deterministic(t *testing.T) {
	_, fetcher, _ := newFakeRepo(t)

	for i := 0; i < 5; i++ {
		raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r")
		require.NoError(t, err)
		assert.Equal(t, wantRepoText, raw.Text)
	}
}

func TestRepoFetcher_BoundsConcurrentDownloads(t *testing.T) {
	const files = 8
	var inFlight, peak, downloads atomic.Int32

	var base string
	handler := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/raw/") {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			downloads.Add(1)
			_, _ = w.Write([]byte(strings.TrimPrefix(r.URL.Path, "/raw/")))
			return
		}
		entries := make([]map[string]any, files)
		for i := range entries {
			name := fmt.Sprintf("f%d.txt", i)
			entries[i] = map[string]any{"type": "file", "name": name, "path": name, "download_url": base + "/raw/" + name}
		}
		writeJSON(t, w, entries)
	}
	client, srv := newTestClient(t, nil, handler)
	base = srv.URL

	pool, err := workpool.New(files)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	fetcher := NewRepoFetcher(client, normalisers.NewDefaultRegistry(), pool, WithMaxDownloads(2))

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r")
	require.NoError(t, err)

	assert.Equal(t, int32(files), downloads.Load())
	assert.Equal(t, files, raw.Metadata["files"])
	for i := 0; i < files; i++ {
		assert.Contains(t, raw.Text, fmt.Sprintf("# Filename: f%d.txt\n", i))
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestRepoFetcher_Subdirectory(t *testing.T) {
	_, fetcher, _ := newFakeRepo(t)

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r/tree/main/src")
	require.NoError(t, err)
	assert.Equal(t, 2, raw.Metadata["files"])
	assert.True(t, strings.HasPrefix(raw.Text, "# ---\n# Filename: src/deep/util.js"))
	assert.Equal(t, "src", raw.Metadata["path"])
}

func TestRepoFetcher_DownloadFailureFailsWholeFetch(t *testing.T) {
	fake, fetcher, _ := newFakeRepo(t)
	fake.failPath = "src/main.py"

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r")
	assert.Nil(t, raw)

	var upstream *domain.UpstreamHTTPError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
}

func TestRepoFetcher_MissingRepo(t *testing.T) {
	_, fetcher, _ := newFakeRepo(t)

	_, err := fetcher.Fetch(context.Background(), "https://github.com/o/missing")
	assert.True(t, IsNotFound(err))
}

func TestRepoFetcher_InvalidURL(t *testing.T) {
	_, fetcher, _ := newFakeRepo(t)

	_, err := fetcher.Fetch(context.Background(), "https://github.com/o")
	assert.True(t, errors.Is(err, domain.ErrInvalidURL))
}

func TestPullRequestFetcher_Fetch(t *testing.T) {
	_, repos, client := newFakeRepo(t)
	fetcher := NewPullRequestFetcher(client, repos)
	assert.Equal(t, domain.TaskKindGithubPullRequest, fetcher.Kind())

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r/pull/5")
	require.NoError(t, err)

	want := "# Pull Request Information\n\n" +
		"## Title: Add feature\n\n" +
		"## Description:\nDoes things\n\n" +
		"## Merge Details:\n" +
		"alice wants to merge 2 commit into o:main from alice:feature\n\n" +
		"## Diff and Comments:\n" +
		"diff --git a/x b/x\n" +
		"+added\n" +
		"\n### Review Comment by dave:\nnice\n\nPath: x\nLine: 3\n\n" +
		"-removed\n" +
		"\n### Review Comment by bob:\nwhy remove?\n\nPath: x\nLine: 9\n\n" +
		"\n### Review Comment by erin:\nstale\n\nPath: x\nLine: \n\n" +
		"\n### Comment by carol:\nLGTM overall\n" +
		RepositorySection + wantRepoText

	assert.Equal(t, want, raw.Text)
	assert.Equal(t, 5, raw.Metadata["number"])
	assert.Equal(t, "alice", raw.Metadata["author"])
	assert.Equal(t, "alice:feature", raw.Metadata["head"])
}

func TestIssueFetcher_Fetch(t *testing.T) {
	_, repos, client := newFakeRepo(t)
	fetcher := NewIssueFetcher(client, repos)
	assert.Equal(t, domain.TaskKindGithubIssue, fetcher.Kind())

	raw, err := fetcher.Fetch(context.Background(), "https://github.com/o/r/issues/9")
	require.NoError(t, err)

	want := "# Issue Information\n\n" +
		"## Title: Bug\n\n" +
		"## Description:\nIt breaks\n\n" +
		"## Comments:\n" +
		"\n### Comment by gina:\nrepro?\n" +
		"\n### Comment by frank:\nfixed\n" +
		RepositorySection + wantRepoText

	assert.Equal(t, want, raw.Text)
	assert.Equal(t, 2, raw.Metadata["comments"])
	assert.Equal(t, "closed", raw.Metadata["state"])
}

func TestIssueFetcher_NotFound(t *testing.T) {
	_, repos, client := newFakeRepo(t)

	_, err := NewIssueFetcher(client, repos).Fetch(context.Background(), "https://github.com/o/r/issues/404")
	assert.True(t, IsNotFound(err))
}

func TestMergeComments_NilPositionsLast(t *testing.T) {
	one, two := 1, 2
	issue := []*gh.IssueComment{
		{Body: gh.Ptr("first"), User: &gh.User{Login: gh.Ptr("a")}},
		{Body: gh.Ptr("second"), User: &gh.User{Login: gh.Ptr("b")}},
	}
	review := []*gh.PullRequestComment{
		{Body: gh.Ptr("late"), Position: &two, User: &gh.User{Login: gh.Ptr("c")}},
		{Body: gh.Ptr("early"), Position: &one, User: &gh.User{Login: gh.Ptr("d")}},
		{Body: gh.Ptr("outdated"), User: &gh.User{Login: gh.Ptr("e")}},
	}

	merged := mergeComments(issue, review)

	logins := make([]string, len(merged))
	for i, c := range merged {
		logins[i] = c.login
	}
	assert.Equal(t, []string{"d", "c", "a", "b", "e"}, logins)
	assert.True(t, merged[0].review)
	assert.False(t, merged[2].review)
}
