// Package connectors groups the fetchers that turn a classified task into raw
// documents. Each subpackage serves one or more task kinds (github, filesystem,
// web, arxiv, youtube, doi) and implements driven.Fetcher.
//
// Fetchers are wired into the ingestor by the CLI at startup.
package connectors
