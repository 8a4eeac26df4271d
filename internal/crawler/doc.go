// Package crawler implements the depth-bounded crawl engine for linkratio.
//
// # Architecture
//
// The package is designed around the Engine type, which coordinates a
// breadth-first traversal from a seed URL. A fixed pool of workers pulls
// (URL, depth) entries from a frontier, fetches each page through the
// retry policy, extracts outbound links, and computes the same-domain
// link metrics. A single coordinator goroutine owns the frontier and the
// visited set, so discovery of the same URL on two pages at once can
// never race it into the frontier twice.
//
// # Components
//
//   - Engine: the crawl coordinator (worker pool, frontier, visited set)
//   - Fetcher: HTTP collaborator interface with a timing decorator
//   - RetryPolicy: bounded retries with exponential backoff and jitter
//   - LinkExtractor: HTML parsing collaborator built on x/net/html
//
// # Error taxonomy
//
// Fetch failures are classified as TransientError (timeouts, connection
// resets, 5xx responses) or PermanentError (malformed URLs, DNS
// resolution failures, 4xx responses). Only transient failures are
// retried; both kinds end up as per-page failure records and never
// abort the run.
//
// # Usage
//
//	engine := crawler.New(cfg, crawler.WithLogger(logger))
//	result, err := engine.Run(ctx, "example.com", 3)
package crawler
