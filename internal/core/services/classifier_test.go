package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

func existing(paths ...string) func(string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestClassifier_Classify(t *testing.T) {
	c := &Classifier{Stat: existing("./data/", "/tmp/notes")}

	tests := []struct {
		task string
		want domain.TaskKind
	}{
		{"./data/", domain.TaskKindLocalFolder},
		{"/tmp/notes", domain.TaskKindLocalFolder},
		{"https://github.com/rtyley/small-test-repo", domain.TaskKindGithubRepo},
		{"https://github.com/rtyley/small-test-repo/tree/main/src", domain.TaskKindGithubRepo},
		{"https://github.com/rtyley/small-test-repo/pull/27", domain.TaskKindGithubPullRequest},
		{"https://github.com/rtyley/small-test-repo/issues/2", domain.TaskKindGithubIssue},
		{"https://arxiv.org/pdf/2004.07606", domain.TaskKindArxiv},
		{"https://arxiv.org/abs/2004.07606", domain.TaskKindArxiv},
		{"https://www.youtube.com/watch?v=KZ_NlnmPQYk", domain.TaskKindYoutubeTranscript},
		{"https://youtu.be/KZ_NlnmPQYk", domain.TaskKindYoutubeTranscript},
		{"https://llm.datasette.io/en/stable/", domain.TaskKindWebContent},
		{"http://example.com", domain.TaskKindWebContent},
		{"10.1053/j.ajkd.2017.08.002", domain.TaskKindDoiOrPmid},
		{"10.1000/ABC.def", domain.TaskKindDoiOrPmid},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			got, err := c.Classify(tt.task)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_RuleOrder(t *testing.T) {
	// Local paths are checked before the URL scheme.
	c := &Classifier{Stat: existing("http://example.com")}
	got, err := c.Classify("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskKindLocalFolder, got)

	// GitHub host wins over everything else.
	c = &Classifier{Stat: func(string) bool { return true }}
	got, err = c.Classify("https://github.com/a/b")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskKindGithubRepo, got)

	// www.github.com is not the GitHub host.
	got, err = (&Classifier{Stat: existing()}).Classify("https://www.github.com/a/b")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskKindWebContent, got)
}

func TestClassifier_Unsupported(t *testing.T) {
	c := &Classifier{Stat: existing()}

	for _, task := range []string{"", "ftp://example.com/file", "not a task", "doi:10.1000/x", "11.1234/abc"} {
		t.Run(task, func(t *testing.T) {
			kind, err := c.Classify(task)
			require.Error(t, err)
			assert.Equal(t, domain.TaskKindUnknown, kind)

			var unsupported *domain.UnsupportedTaskError
			require.True(t, errors.As(err, &unsupported))
			assert.Equal(t, task, unsupported.Task)
			assert.ErrorIs(t, err, domain.ErrUnsupportedTask)
		})
	}
}

func TestNewClassifier_UsesFilesystem(t *testing.T) {
	dir := t.TempDir()
	got, err := NewClassifier().Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskKindLocalFolder, got)
}
