// Package youtube fetches video transcripts.
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

const (
	// DefaultLanguage is the transcript language requested from YouTube.
	DefaultLanguage = "en"

	// DefaultTimeout bounds each YouTube request.
	DefaultTimeout = 30 * time.Second
)

var videoIDPattern = regexp.MustCompile(
	`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`,
)

// ExtractVideoID returns the 11 character video id in url.
func ExtractVideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("youtube url %q: %w", url, domain.ErrInvalidURL)
	}
	return m[1], nil
}

// Ensure the types implement the interfaces.
var (
	_ driven.Fetcher          = (*Fetcher)(nil)
	_ driven.TranscriptSource = (*TranscriptClient)(nil)
)

// Fetcher turns a video URL into a transcript document.
type Fetcher struct {
	source driven.TranscriptSource
}

// New creates a fetcher. A nil source uses the YouTube web client.
func New(source driven.TranscriptSource) *Fetcher {
	if source == nil {
		source = NewTranscriptClient(nil, DefaultLanguage)
	}
	return &Fetcher{source: source}
}

// Kind returns the YouTube transcript task kind.
func (f *Fetcher) Kind() domain.TaskKind {
	return domain.TaskKindYoutubeTranscript
}

// Fetch retrieves the transcript of the video named by task.
func (f *Fetcher) Fetch(ctx context.Context, task string) (*domain.RawDocument, error) {
	id, err := ExtractVideoID(task)
	if err != nil {
		return nil, err
	}

	lines, err := f.source.Transcript(ctx, id)
	if err != nil {
		return nil, &domain.TranscriptUnavailableError{VideoID: id, Err: err}
	}
	logger.Debug("Fetched %d transcript lines for %s", len(lines), id)

	return &domain.RawDocument{
		Text:     strings.Join(lines, "\n"),
		Metadata: map[string]any{"video_id": id},
	}, nil
}

// TranscriptClient reads captions through the YouTube web API.
type TranscriptClient struct {
	client   *yt.Client
	language string
}

// NewTranscriptClient creates a transcript source. A nil httpClient uses a
// client with DefaultTimeout.
func NewTranscriptClient(httpClient *http.Client, language string) *TranscriptClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &TranscriptClient{
		client:   &yt.Client{HTTPClient: httpClient},
		language: language,
	}
}

// Transcript returns the caption lines of videoID in order.
func (c *TranscriptClient) Transcript(ctx context.Context, videoID string) ([]string, error) {
	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}
	transcript, err := c.client.GetTranscriptCtx(ctx, video, c.language)
	if err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", videoID, err)
	}

	lines := make([]string, 0, len(transcript))
	for _, segment := range transcript {
		lines = append(lines, segment.Text)
	}
	return lines, nil
}
