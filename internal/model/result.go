package model

import (
	"sort"
	"time"
)

// PageResult is one record per successfully fetched page.
// It is created once, after link extraction completes, and is immutable
// thereafter; ownership passes to the result sinks for persistence.
type PageResult struct {
	// URL is the normalized URL of the fetched page.
	URL string `json:"url"`

	// Depth is the BFS distance from the seed (seed has depth 0).
	Depth int `json:"depth"`

	// TotalLinks is the number of unique outbound links extracted from
	// the page.
	TotalLinks int `json:"total_links_found"`

	// SameDomainLinks is the number of extracted links whose host equals
	// the page's own host. Subdomains count as distinct hosts.
	SameDomainLinks int `json:"same_domain_links"`

	// SameDomainRatio is SameDomainLinks / TotalLinks, or 0.0 when the
	// page has no links.
	SameDomainRatio float64 `json:"same_domain_ratio"`

	// FetchDuration is the wall-clock time of the successful fetch
	// attempt, measured around the HTTP request.
	FetchDuration time.Duration `json:"fetch_duration"`

	// StatusCode is the HTTP status of the successful response.
	StatusCode int `json:"status_code"`

	// Attempts is the total number of fetch attempts made for this page,
	// including the successful one.
	Attempts int `json:"attempts"`
}

// PageFailure records a page that could not be fetched after the retry
// policy was exhausted (or failed permanently). Failed pages contribute
// no links to the frontier and never appear in the TSV output.
type PageFailure struct {
	// URL is the normalized URL that failed.
	URL string `json:"url"`

	// Depth is the BFS distance at which the URL was discovered.
	Depth int `json:"depth"`

	// Attempts is the number of fetch attempts made before giving up.
	Attempts int `json:"attempts"`

	// Error is the final error message.
	Error string `json:"error"`
}

// CrawlResult is the summary of a completed crawl run. It holds every
// record the run produced; the per-run bookkeeping (frontier, visited
// set) is internal to the engine and discarded when the run finishes.
type CrawlResult struct {
	// Seed is the normalized seed URL the crawl started from.
	Seed string `json:"seed"`

	// MaxDepth is the depth bound the run was configured with.
	MaxDepth int `json:"max_depth"`

	// StartedAt is the wall-clock start time of the run.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total elapsed time of the run.
	Duration time.Duration `json:"duration"`

	// Pages contains one PageResult per successfully processed page.
	Pages []PageResult `json:"pages"`

	// Failures contains pages that failed after retries.
	Failures []PageFailure `json:"failures,omitempty"`
}

// NewCrawlResult creates an empty run summary for the given seed and
// depth bound, stamped with the current time.
func NewCrawlResult(seed string, maxDepth int) *CrawlResult {
	return &CrawlResult{
		Seed:      seed,
		MaxDepth:  maxDepth,
		StartedAt: time.Now().UTC(),
		Pages:     make([]PageResult, 0),
		Failures:  make([]PageFailure, 0),
	}
}

// SortPages orders the page records by (depth, url).
// Concurrent workers complete in nondeterministic order; sorting makes
// two runs over identical responses produce identical record sequences.
func (r *CrawlResult) SortPages() {
	sort.Slice(r.Pages, func(i, j int) bool {
		if r.Pages[i].Depth != r.Pages[j].Depth {
			return r.Pages[i].Depth < r.Pages[j].Depth
		}
		return r.Pages[i].URL < r.Pages[j].URL
	})
	sort.Slice(r.Failures, func(i, j int) bool {
		if r.Failures[i].Depth != r.Failures[j].Depth {
			return r.Failures[i].Depth < r.Failures[j].Depth
		}
		return r.Failures[i].URL < r.Failures[j].URL
	})
}

// PagesFetched returns the number of successfully processed pages.
func (r *CrawlResult) PagesFetched() int {
	return len(r.Pages)
}

// PagesFailed returns the number of pages that failed after retries.
func (r *CrawlResult) PagesFailed() int {
	return len(r.Failures)
}

// SameDomainRatio computes the ratio of same-domain links for a page.
// Returns 0.0 when the page has no links. The sentinel keeps the TSV
// rows numeric instead of introducing a NaN or empty field.
func SameDomainRatio(sameDomain, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return float64(sameDomain) / float64(total)
}
