// Package sqlite provides a SQLite implementation of driven.ResultStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// A run row holds its embedding matrix in the compact base64 float32 form;
// documents and chunks live in their own tables keyed by run ID.
//
// # Data Location
//
// By default, the database is stored at ~/.bookwyrm/data/results.db
package sqlite
