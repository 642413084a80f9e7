// Package cli provides the bookwyrm command line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driving"
	"github.com/custodia-labs/bookwyrm/internal/core/services"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

var (
	// version is set at build time with -ldflags "-X .../cli.version=...".
	version = "dev"

	verbose   bool
	configDir string
	envFile   string

	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "bookwyrm",
	Short: "Ingest knowledge sources into chunks and embeddings",
	Long: `bookwyrm turns local folders, GitHub repositories, issues and pull
requests, arXiv papers, YouTube videos, web sites and DOI/PMID papers into
ordered text chunks and their embeddings.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.bookwyrm)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with API tokens")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetSettingsService injects the settings service. When unset, one backed by
// the TOML config store is created on first use.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if settingsService == nil {
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		logger.Debug("Using config %s", store.Path())
		settingsService = services.NewSettingsService(store)
	}
	return nil
}
