// Package normalisers provides the content extractors that turn file and
// response bytes into text, and the registry that selects one per file
// extension.
//
// NewDefaultRegistry registers the extractors for the fixed allow-list used
// by the folder and repository fetchers.
package normalisers
