// Package tokens counts tokens with the cl100k_base encoding.
//
// The BPE ranks are loaded from the embedded offline loader so counting
// never touches the network.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is the tokenizer used for document token counts.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// Counter counts tokens with a fixed encoding. Safe for concurrent use.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New creates a counter for the named encoding.
func New(encoding string) (*Counter, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// NewDefault creates a cl100k_base counter.
func NewDefault() (*Counter, error) {
	return New(DefaultEncoding)
}

// CountTokens returns the number of tokens in text.
// Special token markers are counted as ordinary text.
func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
