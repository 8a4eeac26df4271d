// Package main provides the entry point for the linkratio CLI.
//
// linkratio is a depth-bounded web crawler that records, for every
// fetched page, how many of its links point back at the page's own
// domain.
//
// Usage:
//
//	linkratio crawl <seed-url> <max-depth>
//	linkratio serve
//
// See --help for all available options.
package main

// main is the entry point for linkratio.
func main() {
	Execute()
}
