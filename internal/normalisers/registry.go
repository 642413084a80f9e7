package normalisers

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/bookwyrm/internal/core/domain"
	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/notebook"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.Extractor),
	}
}

// NewDefaultRegistry creates a registry holding the plain text and notebook extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(notebook.New())
	return r
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extractor.SupportedExtensions() {
		r.extractors[strings.ToLower(ext)] = extractor
	}
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Extract runs the extractor registered for name.
func (r *Registry) Extract(ctx context.Context, name string, content []byte) (string, error) {
	extractor, ok := r.lookup(name)
	if !ok {
		return "", fmt.Errorf("no extractor for %s: %w", name, domain.ErrInvalidInput)
	}
	return extractor.Extract(ctx, name, content)
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(name string) (driven.Extractor, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	extractor, ok := r.extractors[ext]
	return extractor, ok
}
