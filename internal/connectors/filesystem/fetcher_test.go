package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/normalisers"
	"github.com/custodia-labs/bookwyrm/internal/workpool"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	pool, err := workpool.New(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return New(normalisers.NewDefaultRegistry(), pool)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFetcher_Kind(t *testing.T) {
	assert.Equal(t, domain.TaskKindLocalFolder, newTestFetcher(t).Kind())
}

func TestFetcher_Fetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "print(1)")
	writeFile(t, filepath.Join(root, "b.md"), "# Title")
	writeFile(t, filepath.Join(root, "image.png"), "\x89PNG")

	doc, err := newTestFetcher(t).Fetch(context.Background(), root)
	require.NoError(t, err)

	want := domain.FileHeader(filepath.Join(root, "a.py")) + "print(1)\n\n" +
		"\n" +
		domain.FileHeader(filepath.Join(root, "b.md")) + "# Title\n\n"
	assert.Equal(t, want, doc.Text)
	assert.Equal(t, 2, doc.Metadata["files"])
	assert.Equal(t, 2, domain.CountFiles(doc.Text))
}

func TestFetcher_FetchLexicalOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.txt", "m/inner.txt", "a.txt", "m/a.txt"} {
		writeFile(t, filepath.Join(root, name), name)
	}

	paths, err := newTestFetcher(t).Collect(root)
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "m", "a.txt"),
		filepath.Join(root, "m", "inner.txt"),
		filepath.Join(root, "z.txt"),
	}
	assert.Equal(t, want, paths)
}

func TestFetcher_FetchInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.txt"), "ok\xff\xfeend")

	doc, err := newTestFetcher(t).Fetch(context.Background(), root)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "okend")
}

func TestFetcher_FetchNotebook(t *testing.T) {
	root := t.TempDir()
	nb := `{"cells":[{"cell_type":"code","execution_count":1,"source":["x = 1"]}]}`
	writeFile(t, filepath.Join(root, "nb.ipynb"), nb)

	doc, err := newTestFetcher(t).Fetch(context.Background(), root)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "# In[1]:")
	assert.Contains(t, doc.Text, "x = 1")
}

func TestFetcher_FetchEmptyFolder(t *testing.T) {
	doc, err := newTestFetcher(t).Fetch(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, 0, doc.Metadata["files"])
}

func TestFetcher_FetchMissing(t *testing.T) {
	_, err := newTestFetcher(t).Fetch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetcher_FetchSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.txt")
	writeFile(t, path, "solo")

	doc, err := newTestFetcher(t).Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.FileHeader(path)+"solo\n\n", doc.Text)
}
