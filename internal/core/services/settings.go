package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize          = "chunk.size"
	keyChunkOverlap       = "chunk.overlap"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedBatchSize     = "embedding.batch_size"
	keyEmbedConcurrency   = "embedding.concurrency"
	keyEmbedMaxRetries    = "embedding.max_retries"
	keyGithubMaxDownloads = "github.max_downloads"
	keyGithubRate         = "github.rate"
	keyWebMaxDepth        = "web.max_depth"
	keyWebIncludePDFs     = "web.include_pdfs"
	keyWebIgnoreEPUBs     = "web.ignore_epubs"
	keyTimeoutRequest     = "timeouts.request"
	keyTimeoutCrawl       = "timeouts.crawl"
	keyTimeoutTask        = "timeouts.task"
	keyWorkers            = "workers"
	keyMaxTasks           = "max_concurrent_tasks"
	keyDatabasePath       = "storage.path"
)

// SettingsService reads and writes settings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Get retrieves current settings. Missing or invalid values fall back to the defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	provider := s.getProvider(d.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings := &domain.Settings{
		Chunk: domain.ChunkSettings{
			Size:    s.getPositiveInt(keyChunkSize, d.Chunk.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunk.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:    provider,
			Model:       model,
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL),
			APIKey:      s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:   s.getPositiveInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			Concurrency: s.getPositiveInt(keyEmbedConcurrency, d.Embedding.Concurrency),
			MaxRetries:  s.getInt(keyEmbedMaxRetries, d.Embedding.MaxRetries),
		},
		Github: domain.GithubSettings{
			MaxDownloads: s.getPositiveInt(keyGithubMaxDownloads, d.Github.MaxDownloads),
			Rate:         s.getInt(keyGithubRate, d.Github.Rate),
		},
		Web: domain.WebSettings{
			MaxDepth:    s.getInt(keyWebMaxDepth, d.Web.MaxDepth),
			IncludePDFs: s.getBool(keyWebIncludePDFs, d.Web.IncludePDFs),
			IgnoreEPUBs: s.getBool(keyWebIgnoreEPUBs, d.Web.IgnoreEPUBs),
		},
		Timeouts: domain.TimeoutSettings{
			Request: s.getDuration(keyTimeoutRequest, d.Timeouts.Request),
			Crawl:   s.getDuration(keyTimeoutCrawl, d.Timeouts.Crawl),
			Task:    s.getDuration(keyTimeoutTask, d.Timeouts.Task),
		},
		Workers:            s.getPositiveInt(keyWorkers, d.Workers),
		MaxConcurrentTasks: s.getInt(keyMaxTasks, d.MaxConcurrentTasks),
		DatabasePath:       s.configStore.GetString(keyDatabasePath),
	}
	return settings, nil
}

// Save persists settings. API keys are only written when set.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", settings.Embedding.Provider)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunk.Size},
		{keyChunkOverlap, settings.Chunk.Overlap},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedConcurrency, settings.Embedding.Concurrency},
		{keyEmbedMaxRetries, settings.Embedding.MaxRetries},
		{keyGithubMaxDownloads, settings.Github.MaxDownloads},
		{keyGithubRate, settings.Github.Rate},
		{keyWebMaxDepth, settings.Web.MaxDepth},
		{keyWebIncludePDFs, settings.Web.IncludePDFs},
		{keyWebIgnoreEPUBs, settings.Web.IgnoreEPUBs},
		{keyTimeoutRequest, settings.Timeouts.Request.String()},
		{keyTimeoutCrawl, settings.Timeouts.Crawl.String()},
		{keyTimeoutTask, settings.Timeouts.Task.String()},
		{keyWorkers, settings.Workers},
		{keyMaxTasks, settings.MaxConcurrentTasks},
		{keyDatabasePath, settings.DatabasePath},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return s.configStore.Save()
}

func (s *SettingsService) getProvider(defaultValue domain.EmbeddingProvider) domain.EmbeddingProvider {
	p := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if p.IsValid() {
		return p
	}
	return defaultValue
}

func (s *SettingsService) getInt(key string, defaultValue int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultValue
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getPositiveInt(key string, defaultValue int) int {
	if v := s.getInt(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

func (s *SettingsService) getBool(key string, defaultValue bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultValue
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultValue time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultValue
}
