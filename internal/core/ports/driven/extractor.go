package driven

import "context"

// Extractor turns the bytes of one file or response body into text.
// Each extractor handles a fixed set of file extensions.
type Extractor interface {
	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Extract returns the text of content. name is used for diagnostics only.
	Extract(ctx context.Context, name string, content []byte) (string, error)
}

// ExtractorRegistry dispatches files to extractors by extension.
// Files whose extension is not registered are not part of any document.
type ExtractorRegistry interface {
	// Supports reports whether a file with this name is allow-listed.
	Supports(name string) bool

	// Extract uses the extractor registered for name's extension.
	Extract(ctx context.Context, name string, content []byte) (string, error)

	// Register adds an extractor, replacing any previous owner of its extensions.
	Register(extractor Extractor)
}
