package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// Output formats for ingest results.
const (
	formatJSON   = "json"
	formatBase64 = "base64"
)

var ingestFlags struct {
	out          string
	format       string
	db           string
	window       int
	overlap      int
	batchSize    int
	noEmbed      bool
	allowMissing bool
	tasksFile    string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [tasks...]",
	Short: "Ingest tasks into chunks and embeddings",
	Long: `Fetches every task into one document, splits the documents into chunks
and embeds the chunks.

A task is a local path, a GitHub repository, issue or pull request URL, an
arXiv URL, a YouTube URL, a web page URL, or a DOI/PMID identifier.
Documents keep the order of the tasks.`,
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVarP(&ingestFlags.out, "out", "o", "", "Write the result to this file instead of stdout")
	f.StringVar(&ingestFlags.format, "format", formatJSON, "Result format: json or base64")
	f.StringVar(&ingestFlags.db, "db", "", "Also store the result in this SQLite database")
	f.IntVar(&ingestFlags.window, "window", 0, "Chunk size in characters (default from settings)")
	f.IntVar(&ingestFlags.overlap, "overlap", -1, "Characters shared by consecutive chunks (default from settings)")
	f.IntVar(&ingestFlags.batchSize, "batch-size", 0, "Chunks per embedding request (default from settings)")
	f.BoolVar(&ingestFlags.noEmbed, "no-embed", false, "Skip the embedding step")
	f.BoolVar(&ingestFlags.allowMissing, "allow-missing-embeddings", false,
		"Keep the result without embeddings when the embedding step fails")
	f.StringVar(&ingestFlags.tasksFile, "tasks-file", "", "Read tasks from a file, one per line")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if ingestFlags.format != formatJSON && ingestFlags.format != formatBase64 {
		return fmt.Errorf("unknown format %q: %w", ingestFlags.format, domain.ErrInvalidInput)
	}

	tasks := append([]string{}, args...)
	if ingestFlags.tasksFile != "" {
		fileTasks, err := readTasksFile(ingestFlags.tasksFile)
		if err != nil {
			return err
		}
		tasks = append(tasks, fileTasks...)
	}
	if len(tasks) == 0 {
		return errors.New("no tasks given")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	applyIngestFlags(settings)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, settings, runOptions{
		noEmbed:      ingestFlags.noEmbed,
		allowMissing: ingestFlags.allowMissing,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	result, runErr := a.pipeline.Run(ctx, tasks)
	if result == nil {
		return fmt.Errorf("ingest failed: %w", runErr)
	}
	if runErr != nil {
		if !ingestFlags.allowMissing || !errors.Is(runErr, domain.ErrEncoding) {
			return fmt.Errorf("run failed: %w", runErr)
		}
		logger.Warn("Embedding failed, writing result without embeddings: %v", runErr)
	}

	if err := writeResult(cmd, result); err != nil {
		return err
	}
	if ingestFlags.out != "" {
		printSummary(cmd.OutOrStdout(), result)
	}
	return nil
}

// applyIngestFlags overrides settings with flags the user set.
func applyIngestFlags(settings *domain.Settings) {
	if ingestFlags.window > 0 {
		settings.Chunk.Size = ingestFlags.window
	}
	if ingestFlags.overlap >= 0 {
		settings.Chunk.Overlap = ingestFlags.overlap
	}
	if ingestFlags.batchSize > 0 {
		settings.Embedding.BatchSize = ingestFlags.batchSize
	}
	if ingestFlags.db != "" {
		settings.DatabasePath = ingestFlags.db
	}
}

// readTasksFile returns the non-empty lines of path. Lines starting with #
// are comments.
func readTasksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tasks file: %w", err)
	}
	defer f.Close()

	var tasks []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tasks = append(tasks, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	return tasks, nil
}

func writeResult(cmd *cobra.Command, result *domain.IngestionResult) error {
	if ingestFlags.out == "" {
		return encodeResult(cmd.OutOrStdout(), result, ingestFlags.format)
	}
	f, err := os.Create(ingestFlags.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return writeAndClose(f, result, ingestFlags.format)
}

// writeAndClose encodes result into wc and reports a failed close, which can
// mean the file was not fully written.
func writeAndClose(wc io.WriteCloser, result *domain.IngestionResult, format string) error {
	if err := encodeResult(wc, result, format); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// encodeResult writes result as indented JSON. The base64 format stores the
// embedding matrix as packed little-endian float32 values.
func encodeResult(w io.Writer, result *domain.IngestionResult, format string) error {
	var payload any = result
	if format == formatBase64 {
		persisted, err := result.Persisted()
		if err != nil {
			return fmt.Errorf("encode embeddings: %w", err)
		}
		payload = persisted
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result *domain.IngestionResult) {
	fmt.Fprintf(w, "Run %s\n", result.RunID)
	fmt.Fprintf(w, "  Documents:  %d\n", len(result.Documents))
	fmt.Fprintf(w, "  Chunks:     %d\n", len(result.Chunks))
	if result.HasEmbeddings() {
		fmt.Fprintf(w, "  Embeddings: %d x %d\n", len(result.Embeddings), result.Dimensions())
	} else {
		fmt.Fprintln(w, "  Embeddings: none")
	}
	fmt.Fprintf(w, "Wrote %s\n", ingestFlags.out)
}
