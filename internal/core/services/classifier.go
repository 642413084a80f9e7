package services

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driving"
)

// Ensure Classifier implements the interface.
var _ driving.TaskClassifier = (*Classifier)(nil)

var doiPattern = regexp.MustCompile(`(?i)^10\.\d{4,9}/[-._;()/:A-Z0-9]+`)

// Classifier maps task strings to task kinds. Rules are tried in order and
// the first match wins.
type Classifier struct {
	// Stat reports whether a local path exists.
	Stat func(path string) bool
}

// NewClassifier creates a classifier that checks the real filesystem.
func NewClassifier() *Classifier {
	return &Classifier{Stat: pathExists}
}

// Classify returns the kind of task.
func (c *Classifier) Classify(task string) (domain.TaskKind, error) {
	var host, path, scheme string
	if u, err := url.Parse(task); err == nil {
		host, path, scheme = u.Host, u.Path, u.Scheme
	}

	switch {
	case host == "github.com":
		switch {
		case strings.Contains(path, "/pull/"):
			return domain.TaskKindGithubPullRequest, nil
		case strings.Contains(path, "/issues/"):
			return domain.TaskKindGithubIssue, nil
		default:
			return domain.TaskKindGithubRepo, nil
		}
	case host == "arxiv.org":
		return domain.TaskKindArxiv, nil
	case c.exists(task):
		return domain.TaskKindLocalFolder, nil
	case strings.Contains(task, "youtube.com") || strings.Contains(task, "youtu.be"):
		return domain.TaskKindYoutubeTranscript, nil
	case scheme == "http" || scheme == "https":
		return domain.TaskKindWebContent, nil
	case doiPattern.MatchString(task):
		return domain.TaskKindDoiOrPmid, nil
	}
	return domain.TaskKindUnknown, &domain.UnsupportedTaskError{Task: task}
}

func (c *Classifier) exists(path string) bool {
	if path == "" {
		return false
	}
	if c.Stat == nil {
		return pathExists(path)
	}
	return c.Stat(path)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
