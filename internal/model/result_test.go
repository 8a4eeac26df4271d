package model

import (
	"math"
	"testing"
)

// TestSameDomainRatio tests the ratio computation including the
// zero-links sentinel.
func TestSameDomainRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sameDomain int
		total      int
		want       float64
	}{
		{name: "no links yields sentinel zero", sameDomain: 0, total: 0, want: 0.0},
		{name: "all same domain", sameDomain: 5, total: 5, want: 1.0},
		{name: "none same domain", sameDomain: 0, total: 4, want: 0.0},
		{name: "two of three", sameDomain: 2, total: 3, want: 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SameDomainRatio(tt.sameDomain, tt.total)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected ratio %f, got %f", tt.want, got)
			}
		})
	}
}

// TestCrawlResultSortPages verifies deterministic ordering by (depth, url).
func TestCrawlResultSortPages(t *testing.T) {
	t.Parallel()

	r := NewCrawlResult("https://example.com/", 2)
	r.Pages = []PageResult{
		{URL: "https://example.com/c", Depth: 1},
		{URL: "https://example.com/", Depth: 0},
		{URL: "https://example.com/a", Depth: 1},
		{URL: "https://example.com/deep", Depth: 2},
	}

	r.SortPages()

	want := []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/c",
		"https://example.com/deep",
	}
	for i, url := range want {
		if r.Pages[i].URL != url {
			t.Errorf("position %d: expected %q, got %q", i, url, r.Pages[i].URL)
		}
	}
}

// TestCrawlResultCounters tests the fetched/failed counters.
func TestCrawlResultCounters(t *testing.T) {
	t.Parallel()

	r := NewCrawlResult("https://example.com/", 1)
	r.Pages = append(r.Pages, PageResult{URL: "https://example.com/", Depth: 0})
	r.Failures = append(r.Failures, PageFailure{URL: "https://example.com/broken", Depth: 1, Attempts: 3})

	if r.PagesFetched() != 1 {
		t.Errorf("expected 1 fetched, got %d", r.PagesFetched())
	}
	if r.PagesFailed() != 1 {
		t.Errorf("expected 1 failed, got %d", r.PagesFailed())
	}
}
