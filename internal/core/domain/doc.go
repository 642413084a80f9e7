// Package domain defines the core entities of the bookwyrm ingestion engine.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Task / TaskKind: an input descriptor and the source variant handling it
//   - RawDocument: text assembled by a fetcher for one task
//   - Document: normalised text plus derived counters
//   - TextChunk: an ordered, indexed slice of a Document
//   - IngestionResult: document records, chunks and their embeddings
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
