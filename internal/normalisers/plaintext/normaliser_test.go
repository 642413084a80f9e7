package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.IsType(t, &Extractor{}, extractor)
}

func TestSupportedExtensions(t *testing.T) {
	exts := New().SupportedExtensions()

	assert.Contains(t, exts, ".py")
	assert.Contains(t, exts, ".md")
	assert.Contains(t, exts, ".example")
	assert.NotContains(t, exts, ".ipynb")
	assert.NotContains(t, exts, ".pdf")
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"ascii", []byte("print('hi')\n"), "print('hi')\n"},
		{"utf8", []byte("héllo wörld"), "héllo wörld"},
		{"invalid bytes dropped", []byte{'a', 0xff, 0xfe, 'b'}, "ab"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Extract(context.Background(), "f.txt", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
