// Package filesystem reads local folders into a single document and watches
// them for changes.
//
// Files are discovered with filepath.WalkDir, so the document lists them in
// lexical order regardless of how the reads are scheduled. Only files whose
// extension is registered with the extractor registry are read.
package filesystem
