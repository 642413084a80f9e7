package domain

// TaskKind identifies the source variant that handles a task.
type TaskKind int

// The closed set of task kinds.
const (
	TaskKindUnknown TaskKind = iota
	TaskKindGithubRepo
	TaskKindGithubPullRequest
	TaskKindGithubIssue
	TaskKindArxiv
	TaskKindLocalFolder
	TaskKindYoutubeTranscript
	TaskKindWebContent
	TaskKindDoiOrPmid
)

var taskKindNames = map[TaskKind]string{
	TaskKindUnknown:           "unknown",
	TaskKindGithubRepo:        "github_repo",
	TaskKindGithubPullRequest: "github_pull_request",
	TaskKindGithubIssue:       "github_issue",
	TaskKindArxiv:             "arxiv",
	TaskKindLocalFolder:       "local_folder",
	TaskKindYoutubeTranscript: "youtube_transcript",
	TaskKindWebContent:        "web_content",
	TaskKindDoiOrPmid:         "doi_or_pmid",
}

// String returns the snake_case name of the kind.
func (k TaskKind) String() string {
	if name, ok := taskKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TaskKinds returns every known kind in declaration order.
func TaskKinds() []TaskKind {
	return []TaskKind{
		TaskKindGithubRepo,
		TaskKindGithubPullRequest,
		TaskKindGithubIssue,
		TaskKindArxiv,
		TaskKindLocalFolder,
		TaskKindYoutubeTranscript,
		TaskKindWebContent,
		TaskKindDoiOrPmid,
	}
}
