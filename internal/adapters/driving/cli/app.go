package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/auth"
	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/embedding/replicate"
	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bookwyrm/internal/connectors/arxiv"
	"github.com/custodia-labs/bookwyrm/internal/connectors/doi"
	"github.com/custodia-labs/bookwyrm/internal/connectors/filesystem"
	"github.com/custodia-labs/bookwyrm/internal/connectors/github"
	"github.com/custodia-labs/bookwyrm/internal/connectors/web"
	"github.com/custodia-labs/bookwyrm/internal/connectors/youtube"
	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/core/services"
	"github.com/custodia-labs/bookwyrm/internal/normalisers"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/tokens"
	"github.com/custodia-labs/bookwyrm/internal/postprocessors/chunker"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

// Environment variables consulted when no API key is configured.
const (
	replicateTokenEnv = "REPLICATE_API_TOKEN" //nolint:gosec // env var name, not a credential
	openAIKeyEnv      = "OPENAI_API_KEY"      //nolint:gosec // env var name, not a credential
)

// runOptions are the per-invocation choices that are not settings.
type runOptions struct {
	noEmbed      bool
	allowMissing bool
}

// app holds everything one command invocation needs. Close releases it.
type app struct {
	pipeline   *services.Pipeline
	classifier *services.Classifier
	extractors driven.ExtractorRegistry
	pool       *workpool.Pool
	embedder   driven.EmbeddingService
	store      driven.ResultStore
}

// newApp wires the ingestion pipeline from settings.
func newApp(ctx context.Context, settings *domain.Settings, opts runOptions) (*app, error) {
	pool, err := workpool.New(settings.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	a := &app{
		pool:       pool,
		classifier: services.NewClassifier(),
		extractors: normalisers.NewDefaultRegistry(),
	}

	fetchers, err := buildFetchers(ctx, settings, a.extractors, pool)
	if err != nil {
		a.Close()
		return nil, err
	}

	counter, err := tokens.NewDefault()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	ingestor := services.NewIngestor(fetchers, counter,
		services.WithClassifier(a.classifier),
		services.WithMaxConcurrentTasks(settings.MaxConcurrentTasks),
		services.WithTaskTimeout(settings.Timeouts.Task),
	)

	pipelineOpts := []services.PipelineOption{services.WithAllowMissingEmbeddings(opts.allowMissing)}

	if !opts.noEmbed {
		embedder, err := buildEmbedder(settings.Embedding, settings.Timeouts)
		if err != nil {
			a.Close()
			return nil, err
		}
		if embedder != nil {
			a.embedder = embedder
			pipelineOpts = append(pipelineOpts, services.WithBatcher(services.NewEmbeddingBatcher(embedder,
				services.WithBatchSize(settings.Embedding.BatchSize),
				services.WithBatchConcurrency(settings.Embedding.Concurrency),
				services.WithRetries(settings.Embedding.MaxRetries, services.DefaultRetryBackoff),
			)))
		}
	}

	if settings.DatabasePath != "" {
		store, err := sqlite.NewStore(settings.DatabasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open result store: %w", err)
		}
		a.store = store
		pipelineOpts = append(pipelineOpts, services.WithResultStore(store))
	}

	chunks := chunker.New(
		chunker.WithChunkSize(settings.Chunk.Size),
		chunker.WithOverlap(settings.Chunk.Overlap),
	)
	a.pipeline = services.NewPipeline(ingestor, chunks, pipelineOpts...)
	return a, nil
}

// Close releases the pool, the embedder and the store.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	a.pool.Release()
}

// buildFetchers creates one fetcher per task kind.
func buildFetchers(
	ctx context.Context, settings *domain.Settings, extractors driven.ExtractorRegistry, pool *workpool.Pool,
) ([]driven.Fetcher, error) {
	httpClient := &http.Client{Timeout: settings.Timeouts.Request}

	ghClient, err := github.NewClient(ctx, auth.NewGithubTokenProvider(),
		github.WithTimeout(settings.Timeouts.Request),
		github.WithProactiveRate(float64(settings.Github.Rate)),
	)
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}
	repos := github.NewRepoFetcher(ghClient, extractors, pool, github.WithMaxDownloads(settings.Github.MaxDownloads))

	return []driven.Fetcher{
		repos,
		github.NewPullRequestFetcher(ghClient, repos),
		github.NewIssueFetcher(ghClient, repos),
		filesystem.New(extractors, pool),
		web.New(pool,
			web.WithHTTPClient(httpClient),
			web.WithMaxDepth(settings.Web.MaxDepth),
			web.WithIncludePDFs(settings.Web.IncludePDFs),
			web.WithIgnoreEPUBs(settings.Web.IgnoreEPUBs),
			web.WithCrawlTimeout(settings.Timeouts.Crawl),
		),
		arxiv.New(arxiv.WithHTTPClient(httpClient)),
		youtube.New(youtube.NewTranscriptClient(httpClient, "en")),
		doi.New(doi.NewSemanticScholar(doi.WithHTTPClient(httpClient))),
	}, nil
}

// buildEmbedder creates the configured embedding service, or nil for
// EmbeddingProviderNone.
func buildEmbedder(cfg domain.EmbeddingSettings, timeouts domain.TimeoutSettings) (driven.EmbeddingService, error) {
	var (
		svc driven.EmbeddingService
		err error
	)
	switch cfg.Provider {
	case domain.EmbeddingProviderNone:
		return nil, nil
	case domain.EmbeddingProviderReplicate:
		svc, err = replicate.NewEmbeddingService(replicate.Config{
			APIToken: apiKey(cfg.APIKey, replicateTokenEnv),
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
		})
	case domain.EmbeddingProviderOpenAI:
		svc, err = openai.NewEmbeddingService(openai.Config{
			APIKey:  apiKey(cfg.APIKey, openAIKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeouts.Request,
		})
	case domain.EmbeddingProviderOllama:
		svc, err = ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: %w", cfg.Provider, domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.Provider, err)
	}
	return svc, nil
}

func apiKey(configured, env string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(env)
}
