// Package replicate provides an embedding service adapter for Replicate
// predictions running a sentence-embedding model.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.replicate.com/v1"
	DefaultModel   = "replicate/all-mpnet-base-v2:b6b7585c9640cd7a9572c6e129c9549d79c9c31f0d3fdce7baac7c67ca38f305"
	DefaultTimeout = 120 * time.Second

	// DefaultPollInterval is the first wait between status polls of a
	// prediction that outlived the synchronous wait.
	DefaultPollInterval = time.Second

	maxPollInterval = 5 * time.Second
)

// Prediction statuses reported by Replicate.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

// Config holds configuration for the Replicate embedding service.
type Config struct {
	// APIToken is the Replicate API token (required).
	APIToken string

	BaseURL string

	// Model is "owner/name:version". The version hash selects the prediction.
	Model string

	Timeout    time.Duration
	HTTPClient *http.Client

	// PollInterval is the initial backoff between status polls.
	PollInterval time.Duration
}

// EmbeddingService generates embeddings using Replicate predictions.
type EmbeddingService struct {
	client       *http.Client
	baseURL      string
	token        string
	model        string
	version      string
	pollInterval time.Duration
}

type predictionInput struct {
	// TextBatch is a JSON-encoded array of strings.
	TextBatch string `json:"text_batch"`
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type outputRow struct {
	Embedding []float32 `json:"embedding"`
}

type predictionURLs struct {
	Get string `json:"get"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output []outputRow     `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   predictionURLs  `json:"urls"`
}

func (p *predictionResponse) terminal() bool {
	switch p.Status {
	case statusSucceeded, statusFailed, statusCanceled:
		return true
	}
	return false
}

// NewEmbeddingService creates a new Replicate embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("replicate: API token is required: %w", domain.ErrEmbeddingUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	_, version, ok := strings.Cut(cfg.Model, ":")
	if !ok || version == "" {
		return nil, fmt.Errorf("replicate: model %q has no version: %w", cfg.Model, domain.ErrInvalidInput)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &EmbeddingService{
		client:       client,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.APIToken,
		model:        cfg.Model,
		version:      version,
		pollInterval: cfg.PollInterval,
	}, nil
}

// EmbedBatch runs one prediction for the whole batch. The create request
// waits synchronously; a prediction still running after that is polled
// until it finishes or ctx ends.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batch, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("marshal texts: %w", err)
	}
	jsonBody, err := json.Marshal(predictionRequest{
		Version: s.version,
		Input:   predictionInput{TextBatch: string(batch)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	pred, err := s.do(ctx, http.MethodPost, s.baseURL+"/predictions", jsonBody)
	if err != nil {
		return nil, err
	}
	if !pred.terminal() {
		if pred, err = s.wait(ctx, pred); err != nil {
			return nil, err
		}
	}

	if pred.Status != statusSucceeded {
		return nil, fmt.Errorf("replicate: prediction %s %s: %s", pred.ID, pred.Status, string(pred.Error))
	}
	if len(pred.Output) != len(texts) {
		return nil, fmt.Errorf("replicate: got %d embeddings for %d texts: %w",
			len(pred.Output), len(texts), domain.ErrDimensionMismatch)
	}

	vectors := make([][]float32, len(pred.Output))
	for i, row := range pred.Output {
		vectors[i] = row.Embedding
	}
	return vectors, nil
}

// wait polls a running prediction with capped exponential backoff.
func (s *EmbeddingService) wait(ctx context.Context, pred *predictionResponse) (*predictionResponse, error) {
	getURL := pred.URLs.Get
	if getURL == "" {
		if pred.ID == "" {
			return nil, fmt.Errorf("replicate: prediction still %s without id", pred.Status)
		}
		getURL = s.baseURL + "/predictions/" + pred.ID
	}

	backoff := retry.WithCappedDuration(maxPollInterval, retry.NewExponential(s.pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		latest, err := s.do(ctx, http.MethodGet, getURL, nil)
		if err != nil {
			return err
		}
		pred = latest
		if !pred.terminal() {
			return retry.RetryableError(fmt.Errorf("prediction %s still %s", pred.ID, pred.Status))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replicate: wait for prediction: %w", err)
	}
	return pred, nil
}

func (s *EmbeddingService) do(ctx context.Context, method, url string, payload []byte) (*predictionResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("replicate: %w", &domain.UpstreamHTTPError{URL: req.URL.String(), StatusCode: resp.StatusCode})
	}

	var pred predictionResponse
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &pred, nil
}

// ModelName returns the full model reference including its version.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
