package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

// DefaultFileName is the database file created under the data directory.
const DefaultFileName = "results.db"

// Store is a SQLite-backed result store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at dbPath.
// If dbPath is empty, defaults to ~/.bookwyrm/data/results.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".bookwyrm", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveResult stores result under runID in a single transaction.
// An existing run with the same ID is replaced and becomes the newest.
func (s *Store) SaveResult(ctx context.Context, runID string, tasks []string, result *domain.IngestionResult) error {
	persisted, err := result.Persisted()
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshalling tasks: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, tasks, dimensions, row_count, embeddings, has_embeddings)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, string(tasksJSON), persisted.Dimensions, persisted.Rows, persisted.Embeddings, persisted.HasEmbeddings)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (run_id, idx, uri, metadata) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	for _, doc := range persisted.Documents {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for document %d: %w", doc.Index, err)
		}
		if _, err := docStmt.ExecContext(ctx, runID, doc.Index, doc.URI, string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting document %d: %w", doc.Index, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (run_id, global_index, document_index, local_index, text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range persisted.Chunks {
		if _, err := chunkStmt.ExecContext(ctx, runID, chunk.GlobalIndex, chunk.DocumentIndex,
			chunk.LocalIndex, chunk.Text); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunk.GlobalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetResult loads a stored result.
func (s *Store) GetResult(ctx context.Context, runID string) (*domain.IngestionResult, error) {
	persisted := &domain.PersistedResult{RunID: runID}

	row := s.db.QueryRowContext(ctx,
		"SELECT dimensions, row_count, embeddings, has_embeddings FROM runs WHERE id = ?", runID)
	if err := row.Scan(&persisted.Dimensions, &persisted.Rows, &persisted.Embeddings,
		&persisted.HasEmbeddings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	docs, err := s.loadDocuments(ctx, runID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.loadChunks(ctx, runID)
	if err != nil {
		return nil, err
	}
	persisted.Documents = docs
	persisted.Chunks = chunks

	result, err := persisted.Result()
	if err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return result, nil
}

func (s *Store) loadDocuments(ctx context.Context, runID string) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT idx, uri, metadata FROM documents WHERE run_id = ? ORDER BY idx", runID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.DocumentRecord{}
	for rows.Next() {
		var doc domain.DocumentRecord
		var metadataJSON string
		if err := rows.Scan(&doc.Index, &doc.URI, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) loadChunks(ctx context.Context, runID string) ([]domain.TextChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, document_index, local_index, global_index
		FROM chunks WHERE run_id = ? ORDER BY global_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.TextChunk{}
	for rows.Next() {
		var c domain.TextChunk
		if err := rows.Scan(&c.Text, &c.DocumentIndex, &c.LocalIndex, &c.GlobalIndex); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]driven.StoredRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.tasks, r.dimensions,
			(SELECT COUNT(*) FROM documents d WHERE d.run_id = r.id),
			(SELECT COUNT(*) FROM chunks c WHERE c.run_id = r.id)
		FROM runs r
		ORDER BY r.seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []driven.StoredRun{}
	for rows.Next() {
		var run driven.StoredRun
		var tasksJSON string
		if err := rows.Scan(&run.ID, &tasksJSON, &run.Dimensions, &run.Documents, &run.Chunks); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal([]byte(tasksJSON), &run.Tasks); err != nil {
			return nil, fmt.Errorf("unmarshalling tasks: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
