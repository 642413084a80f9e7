// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on ports and the domain. Concurrency helpers come
// from golang.org/x/sync and retries from sethvargo/go-retry.
package services
