// Package doi resolves DOI and PMID identifiers to paper metadata documents.
//
// Metadata comes from the Semantic Scholar paper API. Unknown identifiers
// produce an empty document rather than an error.
package doi
