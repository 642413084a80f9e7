// Package pdf extracts plain text from PDF documents using ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads the text layer of every page.
type Extractor struct {
	separator string
}

// Option configures the extractor.
type Option func(*Extractor)

// WithPageSeparator sets the string placed between page texts.
func WithPageSeparator(sep string) Option {
	return func(e *Extractor) {
		e.separator = sep
	}
}

// New creates a PDF extractor. Pages are joined with a single space by default.
func New(opts ...Option) *Extractor {
	e := &Extractor{separator: " "}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedExtensions returns the PDF extension.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of all pages in page order.
// Malformed files that make the reader panic are reported as errors.
func (e *Extractor) Extract(ctx context.Context, name string, content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf %s: %v", name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", name, err)
	}

	text, err = joinPages(ctx, reader.NumPage(), e.separator, func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", name, err)
	}
	return text, nil
}

// joinPages collects pages 1..n. Pages are one-based, as in the PDF reader.
func joinPages(ctx context.Context, n int, sep string, page func(int) (string, error)) (string, error) {
	texts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := page(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, sep), nil
}
