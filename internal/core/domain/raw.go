package domain

// RawDocument is the text a fetcher assembled for one task.
// It is the fetcher's output before the derived counters are computed.
type RawDocument struct {
	// Text is the extracted text. Composite sources (folders, repositories)
	// separate files with FileHeader blocks.
	Text string

	// Metadata contains fetcher-specific key-value pairs.
	Metadata map[string]any
}

// FileMarker starts every per-file header line in composite documents.
const FileMarker = "# Filename: "

// FileSeparator frames the per-file header line.
const FileSeparator = "# ---"

// FileHeader returns the header block a composite fetcher writes before the
// content of the file at path.
func FileHeader(path string) string {
	return FileSeparator + "\n" + FileMarker + path + "\n" + FileSeparator + "\n\n"
}
