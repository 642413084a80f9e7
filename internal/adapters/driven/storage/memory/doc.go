// Package memory provides in-memory implementations of the driven storage
// ports. They back tests and runs started without a database.
package memory
