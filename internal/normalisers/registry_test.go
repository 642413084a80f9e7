package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

type upperExtractor struct{}

func (upperExtractor) SupportedExtensions() []string { return []string{".TXT"} }

func (upperExtractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	return "UPPER:" + string(content), nil
}

func TestDefaultRegistry_AllowList(t *testing.T) {
	r := NewDefaultRegistry()

	allowed := []string{
		"a.py", "b.txt", "c.js", "d.tsx", "e.ts", "f.md", "g.cjs", "h.html",
		"i.json", "j.ipynb", "k.h", "app.localhost", "run.sh", "ci.yaml", ".env.example",
	}
	for _, name := range allowed {
		t.Run(name, func(t *testing.T) {
			assert.True(t, r.Supports(name))
		})
	}

	for _, name := range []string{"x.pdf", "x.go", "x.yml", "Makefile", "x.png"} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, r.Supports(name))
		})
	}
}

func TestDefaultRegistry_Extensions(t *testing.T) {
	exts := NewDefaultRegistry().Extensions()
	assert.Len(t, exts, 15)
	assert.Contains(t, exts, ".ipynb")
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewDefaultRegistry()
	assert.True(t, r.Supports("README.MD"))
}

func TestRegistry_Extract(t *testing.T) {
	r := NewDefaultRegistry()

	text, err := r.Extract(context.Background(), "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = r.Extract(context.Background(), "image.png", []byte{0x89})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(upperExtractor{})

	text, err := r.Extract(context.Background(), "notes.txt", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "UPPER:hi", text)
}
