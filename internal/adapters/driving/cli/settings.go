package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, embedding, crawling and timeout settings.

Settings are stored in config.toml inside the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider, model and API key.`,
	RunE:  runSettingsEmbedding,
}

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunk]")
	cmd.Printf("  Size: %d\n", settings.Chunk.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunk.Overlap)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Provider != domain.EmbeddingProviderNone {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
		if settings.Embedding.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
		}
		if settings.Embedding.Provider.RequiresAPIKey() {
			if settings.Embedding.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
			} else {
				cmd.Printf("  API Key: (not set, using environment)\n")
			}
		}
		cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
		cmd.Printf("  Concurrency: %d\n", settings.Embedding.Concurrency)
		cmd.Printf("  Max retries: %d\n", settings.Embedding.MaxRetries)
	}
	cmd.Println()

	cmd.Println("[GitHub]")
	cmd.Printf("  Max downloads: %d\n", settings.Github.MaxDownloads)
	cmd.Printf("  Rate: %d/s\n", settings.Github.Rate)
	cmd.Println()

	cmd.Println("[Web]")
	cmd.Printf("  Max depth: %d\n", settings.Web.MaxDepth)
	cmd.Printf("  Include PDFs: %t\n", settings.Web.IncludePDFs)
	cmd.Printf("  Ignore EPUBs: %t\n", settings.Web.IgnoreEPUBs)
	cmd.Println()

	cmd.Println("[Timeouts]")
	cmd.Printf("  Request: %s\n", settings.Timeouts.Request)
	cmd.Printf("  Crawl: %s\n", settings.Timeouts.Crawl)
	cmd.Printf("  Task: %s\n", settings.Timeouts.Task)
	cmd.Println()

	cmd.Printf("Workers: %d\n", settings.Workers)
	if settings.DatabasePath != "" {
		cmd.Printf("Database: %s\n", settings.DatabasePath)
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(stdin)
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	model := ""
	if selectedProvider != domain.EmbeddingProviderNone {
		defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		model = readLine(reader)
		if model == "" {
			model = defaultModel
		}
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	settings.Embedding.Provider = selectedProvider
	settings.Embedding.Model = model
	settings.Embedding.APIKey = apiKey
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s\n", selectedProvider.Description())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal, and a plain line otherwise.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
