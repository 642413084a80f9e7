package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "BOOKWYRM_CHUNK_SIZE", EnvKey("chunk.size"))
	assert.Equal(t, "BOOKWYRM_WORKERS", EnvKey("workers"))
	assert.Equal(t, "BOOKWYRM_WEB_INCLUDE_PDFS", EnvKey("web.include_pdfs"))
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{name: "int", input: 5, want: 5},
		{name: "toml int64", input: int64(7), want: 7},
		{name: "float", input: 3.9, want: 3},
		{name: "string", input: " 800 ", want: 800},
		{name: "bad string", input: "eight", want: 0},
		{name: "bool", input: true, want: 0},
		{name: "nil", input: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.input))
		})
	}
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true))
	assert.True(t, Bool("true"))
	assert.True(t, Bool("1"))
	assert.False(t, Bool("no"))
	assert.False(t, Bool(1))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Duration
	}{
		{name: "native", input: 2 * time.Minute, want: 2 * time.Minute},
		{name: "string", input: "90s", want: 90 * time.Second},
		{name: "bare seconds string", input: "45", want: 45 * time.Second},
		{name: "toml int64", input: int64(120), want: 2 * time.Minute},
		{name: "int", input: 3, want: 3 * time.Second},
		{name: "malformed", input: "soon", want: 0},
		{name: "wrong type", input: false, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.input))
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "ollama", String("ollama"))
	assert.Equal(t, "", String(42))
}
