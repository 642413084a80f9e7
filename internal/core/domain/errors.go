package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent ingestion failures independent of any transport.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidURL indicates a task URL could not be parsed for its kind.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnsupportedTask indicates no source variant accepts a task.
	ErrUnsupportedTask = errors.New("unsupported task")

	// ErrTranscriptUnavailable indicates a video has no retrievable transcript.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrUpstreamHTTP indicates a remote service answered with a non-success status.
	ErrUpstreamHTTP = errors.New("upstream http error")

	// ErrEncoding indicates the embedding service failed for a batch.
	ErrEncoding = errors.New("encoding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrDimensionMismatch indicates embedding rows of differing length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// UnsupportedTaskError is returned when a task matches no TaskKind.
type UnsupportedTaskError struct {
	Task string
}

func (e *UnsupportedTaskError) Error() string {
	return fmt.Sprintf("unsupported task: %q", e.Task)
}

// Unwrap allows errors.Is(err, ErrUnsupportedTask).
func (e *UnsupportedTaskError) Unwrap() error {
	return ErrUnsupportedTask
}

// UpstreamHTTPError is returned when a remote call yields a non-2xx status.
type UpstreamHTTPError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream http error: %s returned %d", e.URL, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrUpstreamHTTP).
func (e *UpstreamHTTPError) Unwrap() error {
	return ErrUpstreamHTTP
}

// TranscriptUnavailableError is returned when a transcript cannot be fetched.
type TranscriptUnavailableError struct {
	VideoID string
	Err     error
}

func (e *TranscriptUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript unavailable for %s: %v", e.VideoID, e.Err)
	}
	return fmt.Sprintf("transcript unavailable for %s", e.VideoID)
}

// Is matches ErrTranscriptUnavailable.
func (e *TranscriptUnavailableError) Is(target error) bool {
	return target == ErrTranscriptUnavailable
}

func (e *TranscriptUnavailableError) Unwrap() error {
	return e.Err
}

// EncodingError is returned when the embedding service fails for a batch.
type EncodingError struct {
	// Batch is the zero-based batch number that failed.
	Batch int
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding batch %d: %v", e.Batch, e.Err)
}

// Is matches ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// TaskError attributes a fetch failure to the task that caused it.
type TaskError struct {
	Index int
	Task  string
	Kind  TaskKind
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s %q): %v", e.Index, e.Kind, e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
