// Package web crawls a web site from a seed URL into a single document.
//
// Pages are fetched concurrently through a shared worker pool but their text
// is assembled in depth-first discovery order. Links are followed only when
// they stay on the seed's host and below the seed's path.
package web
