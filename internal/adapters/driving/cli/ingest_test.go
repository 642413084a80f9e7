package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

func TestIngestCmd_LocalFolderWithoutEmbeddings(t *testing.T) {
	buf, _ := setupCLI(t)
	root := writeTree(t, map[string]string{
		"a.txt":       "alpha",
		"sub/b.md":    "bravo",
		"ignored.bin": "binary",
	})

	err := execute("ingest", "--no-embed", "--window", "4", root)
	require.NoError(t, err)

	var result domain.IngestionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.Len(t, result.Documents, 1)
	assert.Equal(t, root, result.Documents[0].URI)
	assert.Nil(t, result.Embeddings)

	var text strings.Builder
	for i, chunk := range result.Chunks {
		assert.Equal(t, i, chunk.GlobalIndex)
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 4)
		text.WriteString(chunk.Text)
	}
	assert.Contains(t, text.String(), "alpha")
	assert.Contains(t, text.String(), "bravo")
	assert.NotContains(t, text.String(), "binary")
}

func TestIngestCmd_TasksFileAndOutFile(t *testing.T) {
	buf, _ := setupCLI(t)
	first := writeTree(t, map[string]string{"one.txt": "first"})
	second := writeTree(t, map[string]string{"two.txt": "second"})

	dir := t.TempDir()
	tasksFile := filepath.Join(dir, "tasks.txt")
	require.NoError(t, os.WriteFile(tasksFile, []byte("# sources\n"+second+"\n\n"), 0o600))
	out := filepath.Join(dir, "result.json")

	err := execute("ingest", "--no-embed", "--tasks-file", tasksFile, "--out", out, first)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Documents:  2")
	assert.Contains(t, buf.String(), "Embeddings: none")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result domain.IngestionResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Documents, 2)
	assert.Equal(t, first, result.Documents[0].URI)
	assert.Equal(t, second, result.Documents[1].URI)
}

// fakeOpenAI returns {len(text), index} for every input.
func fakeOpenAI(t *testing.T, failing bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type row struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		rows := make([]row, len(req.Input))
		for i, text := range req.Input {
			rows[i] = row{Embedding: []float32{float32(len(text)), float32(i)}, Index: i}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
	}))
}

func configureOpenAI(t *testing.T, set func(string, any) error, url string) {
	t.Helper()
	require.NoError(t, set("embedding.provider", "openai"))
	require.NoError(t, set("embedding.base_url", url))
	require.NoError(t, set("embedding.api_key", "sk-test"))
}

func TestIngestCmd_EmbedsAndStores(t *testing.T) {
	buf, store := setupCLI(t)
	server := fakeOpenAI(t, false)
	defer server.Close()
	configureOpenAI(t, store.Set, server.URL)

	root := writeTree(t, map[string]string{"a.txt": strings.Repeat("x", 25)})
	db := filepath.Join(t.TempDir(), "runs.db")

	err := execute("ingest", "--window", "10", "--batch-size", "2", "--db", db, root)
	require.NoError(t, err)

	var result domain.IngestionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.True(t, result.HasEmbeddings())
	assert.Len(t, result.Embeddings, len(result.Chunks))
	assert.Equal(t, 2, result.Dimensions())
	for i, chunk := range result.Chunks {
		assert.Equal(t, float32(len(chunk.Text)), result.Embeddings[i][0])
	}

	buf.Reset()
	resetFlags()
	require.NoError(t, execute("runs", "list", "--db", db))
	assert.Contains(t, buf.String(), result.RunID)
	assert.Contains(t, buf.String(), "dims=2")

	buf.Reset()
	resetFlags()
	require.NoError(t, execute("runs", "show", "--db", db, "--format", "base64", result.RunID))
	var persisted domain.PersistedResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &persisted))
	restored, err := persisted.Result()
	require.NoError(t, err)
	assert.Equal(t, result.Embeddings, restored.Embeddings)
	assert.Equal(t, result.Chunks, restored.Chunks)
}

func TestIngestCmd_EmbeddingFailure(t *testing.T) {
	buf, store := setupCLI(t)
	server := fakeOpenAI(t, true)
	defer server.Close()
	configureOpenAI(t, store.Set, server.URL)
	require.NoError(t, store.Set("embedding.max_retries", 0))
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	err := execute("ingest", root)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEncoding)

	buf.Reset()
	resetFlags()
	err = execute("ingest", "--allow-missing-embeddings", root)
	require.NoError(t, err)
	var result domain.IngestionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.False(t, result.HasEmbeddings())
	assert.NotEmpty(t, result.Chunks)
}

func TestIngestCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no tasks", args: []string{"ingest", "--no-embed"}},
		{name: "bad format", args: []string{"ingest", "--format", "xml", "./"}},
		{name: "unsupported task", args: []string{"ingest", "--no-embed", "not a task"}},
		{name: "missing tasks file", args: []string{"ingest", "--tasks-file", "/does/not/exist"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t)
			assert.Error(t, execute(tt.args...))
		})
	}
}

func TestReadTasksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks")
	require.NoError(t, os.WriteFile(path, []byte("  a  \n#comment\n\nb\n"), 0o600))

	tasks, err := readTasksFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tasks)
}

func TestApplyIngestFlags(t *testing.T) {
	resetFlags()
	defer resetFlags()

	settings := domain.DefaultSettings()
	applyIngestFlags(&settings)
	assert.Equal(t, domain.DefaultSettings(), settings)

	ingestFlags.window = 100
	ingestFlags.overlap = 10
	ingestFlags.batchSize = 7
	ingestFlags.db = "/tmp/x.db"
	applyIngestFlags(&settings)
	assert.Equal(t, 100, settings.Chunk.Size)
	assert.Equal(t, 10, settings.Chunk.Overlap)
	assert.Equal(t, 7, settings.Embedding.BatchSize)
	assert.Equal(t, "/tmp/x.db", settings.DatabasePath)
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return f.closeErr
}

func TestWriteAndClose(t *testing.T) {
	result := &domain.IngestionResult{RunID: "r1"}

	t.Run("close error is returned", func(t *testing.T) {
		wc := &failingCloser{closeErr: errors.New("disk full")}
		err := writeAndClose(wc, result, formatJSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.True(t, wc.closed)
	})

	t.Run("closes after writing", func(t *testing.T) {
		wc := &failingCloser{}
		require.NoError(t, writeAndClose(wc, result, formatJSON))
		assert.True(t, wc.closed)
		assert.Contains(t, wc.String(), `"r1"`)
	})
}
