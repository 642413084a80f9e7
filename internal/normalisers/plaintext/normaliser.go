// Package plaintext extracts text from source and text files.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extensions is the allow-list of files read as plain text.
var Extensions = []string{
	".py", ".txt", ".js", ".tsx", ".ts", ".md", ".cjs", ".html",
	".json", ".h", ".localhost", ".sh", ".yaml", ".example",
}

// Extractor reads file bytes as UTF-8 text.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the plain text allow-list.
func (e *Extractor) SupportedExtensions() []string {
	return Extensions
}

// Extract returns content as text. Invalid UTF-8 sequences are dropped.
func (e *Extractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	return Decode(content), nil
}

// Decode converts bytes to a string, dropping invalid UTF-8 sequences.
func Decode(content []byte) string {
	return strings.ToValidUTF8(string(content), "")
}
