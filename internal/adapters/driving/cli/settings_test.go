package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Replicate token", input: "r8_abcdefghijklmnop", expected: "r8_a...mnop"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{name: "Empty input returns default", input: "", maxVal: 5, defaultVal: 1, expected: 1},
		{name: "Valid choice within range", input: "3", maxVal: 5, defaultVal: 1, expected: 3},
		{name: "Choice below minimum returns default", input: "0", maxVal: 5, defaultVal: 1, expected: 1},
		{name: "Choice above maximum returns default", input: "6", maxVal: 5, defaultVal: 1, expected: 1},
		{name: "Invalid input returns default", input: "abc", maxVal: 5, defaultVal: 2, expected: 2},
		{name: "Maximum value is valid", input: "5", maxVal: 5, defaultVal: 1, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestSettingsShow_Defaults(t *testing.T) {
	buf, _ := setupCLI(t)

	require.NoError(t, execute("settings", "show"))

	out := buf.String()
	assert.Contains(t, out, "Size: 800")
	assert.Contains(t, out, "Provider: Replicate (all-mpnet-base-v2)")
	assert.Contains(t, out, "API Key: (not set, using environment)")
	assert.Contains(t, out, "Max depth: 2")
	assert.Contains(t, out, "Workers: 8")
}

func TestSettingsShow_MasksKey(t *testing.T) {
	buf, store := setupCLI(t)
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.api_key", "sk-1234567890abcdef"))

	require.NoError(t, execute("settings"))

	assert.Contains(t, buf.String(), "API Key: sk-1...cdef")
	assert.NotContains(t, buf.String(), "sk-1234567890abcdef")
}

func TestSettingsEmbedding_Interactive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		provider domain.EmbeddingProvider
		model    string
		apiKey   string
	}{
		{
			name:     "openai with default model",
			input:    "2\n\nsk-test-key\n",
			provider: domain.EmbeddingProviderOpenAI,
			model:    "text-embedding-3-small",
			apiKey:   "sk-test-key",
		},
		{
			name:     "ollama with custom model",
			input:    "3\nmxbai-embed-large\n",
			provider: domain.EmbeddingProviderOllama,
			model:    "mxbai-embed-large",
		},
		{
			name:     "none",
			input:    "4\n",
			provider: domain.EmbeddingProviderNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, _ := setupCLI(t)
			original := stdin
			stdin = strings.NewReader(tt.input)
			defer func() { stdin = original }()

			require.NoError(t, execute("settings", "embedding"))
			assert.Contains(t, buf.String(), "Embedding provider configured: "+tt.provider.Description())

			settings, err := settingsService.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.model, settings.Embedding.Model)
			assert.Equal(t, tt.apiKey, settings.Embedding.APIKey)
		})
	}
}
