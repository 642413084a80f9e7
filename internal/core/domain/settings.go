package domain

import "time"

// EmbeddingProvider names the service that turns chunks into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	EmbeddingProviderReplicate EmbeddingProvider = "replicate"
	EmbeddingProviderOpenAI    EmbeddingProvider = "openai"
	EmbeddingProviderOllama    EmbeddingProvider = "ollama"

	// EmbeddingProviderNone disables the encode step.
	EmbeddingProviderNone EmbeddingProvider = "none"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderReplicate, EmbeddingProviderOpenAI, EmbeddingProviderOllama, EmbeddingProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true for hosted providers.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderReplicate || p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable label.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderReplicate:
		return "Replicate (all-mpnet-base-v2)"
	case EmbeddingProviderOpenAI:
		return "OpenAI"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderNone:
		return "None (no embeddings)"
	default:
		return string(p)
	}
}

// AllEmbeddingProviders returns the providers in menu order.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderReplicate,
		EmbeddingProviderOpenAI,
		EmbeddingProviderOllama,
		EmbeddingProviderNone,
	}
}

// DefaultEmbeddingModels returns the model used by each provider when none is configured.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderReplicate: "replicate/all-mpnet-base-v2:b6b7585c9640cd7a9572c6e129c9549d79c9c31f0d3fdce7baac7c67ca38f305",
		EmbeddingProviderOpenAI:    "text-embedding-3-small",
		EmbeddingProviderOllama:    "nomic-embed-text",
	}
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	Size    int
	Overlap int
}

// EmbeddingSettings configures the encode step.
type EmbeddingSettings struct {
	Provider    EmbeddingProvider
	Model       string
	BaseURL     string
	APIKey      string
	BatchSize   int
	Concurrency int
	MaxRetries  int
}

// GithubSettings configures the GitHub fetchers.
type GithubSettings struct {
	// MaxDownloads bounds concurrent file downloads per run.
	MaxDownloads int
	// Rate is the proactive request rate per second. Zero disables it.
	Rate int
}

// WebSettings configures the crawler.
type WebSettings struct {
	MaxDepth    int
	IncludePDFs bool
	IgnoreEPUBs bool
}

// TimeoutSettings bounds blocking work.
type TimeoutSettings struct {
	Request time.Duration
	Crawl   time.Duration
	Task    time.Duration
}

// Settings holds every configurable value of a run.
type Settings struct {
	Chunk     ChunkSettings
	Embedding EmbeddingSettings
	Github    GithubSettings
	Web       WebSettings
	Timeouts  TimeoutSettings

	// Workers sizes the shared fetch pool.
	Workers int
	// MaxConcurrentTasks bounds tasks fetched at once. Zero means no bound.
	MaxConcurrentTasks int
	// DatabasePath is the SQLite result store. Empty disables the store.
	DatabasePath string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Chunk: ChunkSettings{
			Size:    800,
			Overlap: 0,
		},
		Embedding: EmbeddingSettings{
			Provider:    EmbeddingProviderReplicate,
			Model:       DefaultEmbeddingModels()[EmbeddingProviderReplicate],
			BatchSize:   200,
			Concurrency: 4,
		},
		Github: GithubSettings{
			MaxDownloads: 10,
			Rate:         10,
		},
		Web: WebSettings{
			MaxDepth:    2,
			IncludePDFs: true,
			IgnoreEPUBs: true,
		},
		Timeouts: TimeoutSettings{
			Request: 30 * time.Second,
			Crawl:   5 * time.Minute,
			Task:    10 * time.Minute,
		},
		Workers: 8,
	}
}
