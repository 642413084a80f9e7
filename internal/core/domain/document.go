package domain

import (
	"strings"
	"unicode/utf8"
)

// TokenCounter returns the number of tokens a fixed tokenizer produces for text.
type TokenCounter interface {
	CountTokens(text string) int
}

// Document is the normalised text of one task.
// It is created once with NewDocument and treated as immutable afterwards.
type Document struct {
	// Text is the full extracted text.
	Text string `json:"text"`

	// Source is the task string that produced this document.
	Source string `json:"source"`

	// Metadata contains fetcher-specific key-value pairs.
	Metadata map[string]any `json:"metadata"`

	// FileCount is the number of file headers embedded in Text.
	FileCount int `json:"num_files"`

	// CharCount is the number of characters (runes) in Text.
	CharCount int `json:"num_chars"`

	// TokenCount is the approximate token count of Text.
	TokenCount int `json:"num_tokens"`
}

// NewDocument builds a Document and computes its derived counters from text.
// A nil counter leaves TokenCount at zero.
func NewDocument(text, source string, metadata map[string]any, counter TokenCounter) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	doc := Document{
		Text:      text,
		Source:    source,
		Metadata:  metadata,
		FileCount: CountFiles(text),
		CharCount: utf8.RuneCountInString(text),
	}
	if counter != nil {
		doc.TokenCount = counter.CountTokens(text)
	}
	return doc
}

// CountFiles counts the file header lines embedded in text.
func CountFiles(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, FileMarker) {
			n++
		}
	}
	return n
}

// TextChunk is a fixed-size slice of a Document's text.
type TextChunk struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// DocumentIndex is the position of the owning Document in the task list.
	DocumentIndex int `json:"document_index"`

	// LocalIndex is the character offset of the chunk start within the document.
	LocalIndex int `json:"local_index"`

	// GlobalIndex is unique and strictly increasing across the chunk sequence.
	GlobalIndex int `json:"global_index"`
}

// DocumentRecord references a Document by position without carrying its text.
type DocumentRecord struct {
	Index    int            `json:"index"`
	URI      string         `json:"uri"`
	Metadata map[string]any `json:"metadata"`
}

// Records builds the DocumentRecord list for docs in order.
func Records(docs []Document) []DocumentRecord {
	records := make([]DocumentRecord, len(docs))
	for i, doc := range docs {
		records[i] = DocumentRecord{
			Index:    i,
			URI:      doc.Source,
			Metadata: doc.Metadata,
		}
	}
	return records
}
