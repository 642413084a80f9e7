package web

import (
	"net/url"
	"strings"
)

// WithinDepth reports whether link lies below base's path with at most
// maxDepth extra path segments.
func WithinDepth(base, link string, maxDepth int) bool {
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	l, err := url.Parse(link)
	if err != nil {
		return false
	}

	baseParts := pathParts(b.Path)
	linkParts := pathParts(l.Path)
	if len(linkParts) < len(baseParts) {
		return false
	}
	for i, part := range baseParts {
		if linkParts[i] != part {
			return false
		}
	}
	return len(linkParts)-len(baseParts) <= maxDepth
}

// SameHost reports whether both URLs name the same host and port.
func SameHost(base, link string) bool {
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	l, err := url.Parse(link)
	if err != nil {
		return false
	}
	return b.Host == l.Host
}

func pathParts(p string) []string {
	return strings.Split(strings.TrimRight(p, "/"), "/")
}
