// Package html extracts readable text and outgoing links from HTML pages.
// Parsing is done with goquery. Scripts, styles and other non-visible
// elements are dropped and block elements are rendered on their own lines.
package html
