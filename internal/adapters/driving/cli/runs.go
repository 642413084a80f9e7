package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

var (
	runsDB     string
	runsFormat string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored ingestion runs",
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "SQLite database (default from settings)")
	runsShowCmd.Flags().StringVar(&runsFormat, "format", formatJSON, "Result format: json or base64")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func openResultStore() (driven.ResultStore, error) {
	path := runsDB
	if path == "" {
		if settingsService == nil {
			return nil, errors.New("settings service not configured")
		}
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		path = settings.DatabasePath
	}
	store, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return store, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	store, err := openResultStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs stored.")
		return nil
	}

	for _, run := range runs {
		cmd.Printf("%s  docs=%d chunks=%d dims=%d  %s\n",
			run.ID, run.Documents, run.Chunks, run.Dimensions, strings.Join(run.Tasks, " "))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openResultStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.GetResult(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run %s: %w", args[0], err)
	}
	return encodeResult(cmd.OutOrStdout(), result, runsFormat)
}
