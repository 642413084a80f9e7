package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"

	"github.com/custodia-labs/bookwyrm/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Page is the parsed form of an HTML document.
type Page struct {
	Title string
	Text  string
	// Links holds every href attribute of <a> elements, in document order.
	Links []string
}

// Extractor returns the visible text of HTML files.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the HTML extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Extract returns the visible text of content.
func (e *Extractor) Extract(_ context.Context, name string, content []byte) (string, error) {
	page, err := Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html %s: %w", name, err)
	}
	return page.Text, nil
}

var (
	hiddenElements = "script,style,noscript,svg,template,iframe"
	blockElements  = map[string]bool{
		"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"blockquote": true, "pre": true, "table": true, "section": true,
		"article": true, "header": true, "footer": true, "nav": true, "ul": true, "ol": true,
	}
	multiSpaces = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			page.Links = append(page.Links, strings.TrimSpace(href))
		}
	})

	doc.Find(hiddenElements).Remove()
	doc.Find("head").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		render(&b, n)
	}
	page.Text = collapse(b.String())
	return page, nil
}

func render(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(n.Data)
		return
	case xhtml.CommentNode:
		return
	}

	block := n.Type == xhtml.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// collapse trims every line and drops empty ones.
func collapse(text string) string {
	lines := strings.Split(multiSpaces.ReplaceAllString(text, " "), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
