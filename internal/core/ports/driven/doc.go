// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and connectors and adapters
// implement them.
//
// # Required Interfaces
//
//   - Fetcher: Turns one task into a RawDocument
//   - TokenCounter: Counts tokens for Document construction
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - EmbeddingService: Generates vectors. Without it, results carry no embeddings.
//   - ResultStore: Persists results. Without it, results are only written to files.
//   - TokenProvider: Supplies the GitHub credential. Without it, GitHub calls are unauthenticated.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
