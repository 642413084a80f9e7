// Package notebook converts Jupyter notebooks into a Python script.
//
// Code cells become script sections headed by their execution count and
// markdown cells become comment blocks. Outputs are discarded.
package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
	"github.com/custodia-labs/bookwyrm/internal/normalisers/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const scriptHeader = "#!/usr/bin/env python\n# coding: utf-8\n\n"

// Extractor converts .ipynb files.
type Extractor struct{}

// New creates a new notebook extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the notebook extension.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".ipynb"}
}

type notebookFile struct {
	Cells []cell `json:"cells"`
}

type cell struct {
	CellType       string          `json:"cell_type"`
	ExecutionCount *int            `json:"execution_count"`
	Source         json.RawMessage `json:"source"`
}

// Extract renders the notebook as a script.
func (e *Extractor) Extract(_ context.Context, name string, content []byte) (string, error) {
	var nb notebookFile
	if err := json.Unmarshal([]byte(plaintext.Decode(content)), &nb); err != nil {
		return "", fmt.Errorf("parse notebook %s: %w", name, err)
	}

	var b strings.Builder
	b.WriteString(scriptHeader)
	for _, c := range nb.Cells {
		src, err := cellSource(c.Source)
		if err != nil {
			return "", fmt.Errorf("parse notebook %s: %w", name, err)
		}
		switch c.CellType {
		case "code":
			count := " "
			if c.ExecutionCount != nil {
				count = fmt.Sprint(*c.ExecutionCount)
			}
			fmt.Fprintf(&b, "\n# In[%s]:\n\n\n%s\n\n", count, src)
		case "markdown":
			b.WriteString("\n")
			for _, line := range strings.Split(src, "\n") {
				b.WriteString(strings.TrimRight("# "+line, " ") + "\n")
			}
			b.WriteString("\n")
		default:
			// raw cells are copied verbatim
			b.WriteString("\n" + src + "\n\n")
		}
	}
	return b.String(), nil
}

// cellSource accepts both the string and the list-of-lines source forms.
func cellSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}
