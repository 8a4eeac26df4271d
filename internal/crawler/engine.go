package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linkratio/linkratio/internal/config"
	"github.com/linkratio/linkratio/internal/model"
)

// Engine coordinates a depth-bounded breadth-first crawl with a
// concurrent worker pool.
//
// Concurrency model: workers only fetch and parse; the frontier and the
// visited set are mutated exclusively by the coordinator loop inside
// Run. Check-and-mark for visited status therefore cannot race even
// when the same URL is discovered on two pages at once.
type Engine struct {
	// cfg supplies the crawl parameters (concurrency, retries, limits).
	cfg *config.Config

	// fetcher performs HTTP GETs. Wrapped with the timing decorator so
	// results carry fetch durations.
	fetcher Fetcher

	// extractor turns page bodies into sets of absolute links.
	extractor LinkExtractor

	// policy is the retry policy applied around every fetch.
	policy RetryPolicy

	// logger receives structured progress and failure logs.
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher replaces the HTTP fetcher. The engine wraps whatever
// fetcher it is given with the timing decorator.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = NewTimedFetcher(f)
	}
}

// WithExtractor replaces the link extractor.
func WithExtractor(x LinkExtractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithLogger sets the logger used for progress and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// New creates an Engine from the configuration. By default it fetches
// with an HTTPFetcher built from the config and extracts links with the
// HTML extractor.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		fetcher: NewTimedFetcher(NewHTTPFetcher(
			WithTimeout(cfg.Timeout),
			WithUserAgent(cfg.UserAgent),
			WithMaxBodySize(cfg.MaxBodySize),
		)),
		extractor: NewHTMLExtractor(),
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseBackoff: cfg.BaseBackoff,
			JitterMax:   cfg.JitterMax,
			MaxBackoff:  30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// frontierEntry is a discovered-but-not-yet-fetched URL with its BFS
// depth. Depth is fixed at discovery time and non-decreasing along any
// discovery path.
type frontierEntry struct {
	url   string
	depth int
}

// outcome is what a worker reports back to the coordinator for one
// frontier entry. Exactly one of page and failure is set, unless the
// entry was skipped after cancellation.
type outcome struct {
	entry   frontierEntry
	page    *model.PageResult
	links   []string
	failure *model.PageFailure
}

// Run crawls breadth-first from seedURL down to maxDepth and returns
// the run summary. The seed has depth 0; nothing is ever fetched above
// maxDepth, and no URL is fetched more than once per run.
//
// Per-page fetch failures are recorded in the summary and never abort
// the run; only setup problems (unparseable seed, negative depth)
// return an error.
func (e *Engine) Run(ctx context.Context, seedURL string, maxDepth int) (*model.CrawlResult, error) {
	if maxDepth < 0 {
		return nil, ErrInvalidDepth
	}

	seed, err := NormalizeURL(ApplyDefaultScheme(seedURL, e.cfg.DefaultProtocol))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	maxPages := e.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPages
	}

	result := model.NewCrawlResult(seed, maxDepth)
	start := time.Now()

	e.logger.Info("starting crawl",
		"seed", seed,
		"max_depth", maxDepth,
		"concurrency", e.cfg.ConcurrencyLimit,
	)

	jobs := make(chan frontierEntry, e.cfg.ConcurrencyLimit*2)
	outcomes := make(chan outcome, e.cfg.ConcurrencyLimit*2)

	// pending counts frontier entries that have been discovered but not
	// yet fully processed by the coordinator. When it drains, the crawl
	// is done.
	var pending sync.WaitGroup

	g, workerCtx := errgroup.WithContext(ctx)
	for range e.cfg.ConcurrencyLimit {
		g.Go(func() error {
			for entry := range jobs {
				outcomes <- e.process(workerCtx, entry)
			}
			return nil
		})
	}

	// visited is the per-run dedup set. Only the coordinator below
	// touches it, which makes check-and-mark atomic by construction.
	visited := map[string]struct{}{seed: {}}

	// backlog holds frontier entries that did not fit in the jobs
	// channel. The coordinator never blocks sending to jobs, so workers
	// blocked on the outcome channel cannot deadlock it.
	var backlog []frontierEntry

	flush := func() {
		for len(backlog) > 0 {
			select {
			case jobs <- backlog[0]:
				backlog = backlog[1:]
			default:
				return
			}
		}
	}

	enqueue := func(entry frontierEntry) {
		pending.Add(1)
		backlog = append(backlog, entry)
		flush()
	}

	// Seed the frontier before the closer starts so its pending.Wait
	// cannot observe a zero counter and close outcomes under a live run.
	enqueue(frontierEntry{url: seed, depth: 0})

	// Close the outcome stream once every discovered entry has been
	// processed and accounted for.
	g.Go(func() error {
		pending.Wait()
		close(outcomes)
		return nil
	})

	for out := range outcomes {
		switch {
		case out.page != nil:
			result.Pages = append(result.Pages, *out.page)

			// Discovered links enter the frontier at depth+1, but only
			// within the depth bound and the page cap, and only once.
			nextDepth := out.entry.depth + 1
			if nextDepth <= maxDepth {
				for _, link := range out.links {
					if _, ok := visited[link]; ok {
						continue
					}
					if len(visited) >= maxPages {
						e.logger.Warn("page cap reached, not enqueueing further links",
							"max_pages", maxPages,
						)
						break
					}
					visited[link] = struct{}{}
					enqueue(frontierEntry{url: link, depth: nextDepth})
				}
			}

		case out.failure != nil:
			result.Failures = append(result.Failures, *out.failure)
		}

		flush()
		pending.Done()
	}

	close(jobs)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("wait for workers: %w", err)
	}

	result.Duration = time.Since(start)
	result.SortPages()

	e.logger.Info("crawl complete",
		"seed", seed,
		"pages_fetched", result.PagesFetched(),
		"pages_failed", result.PagesFailed(),
		"duration", result.Duration,
	)

	return result, nil
}

// process fetches one frontier entry through the retry policy and, on
// success, extracts links and computes the same-domain metrics.
func (e *Engine) process(ctx context.Context, entry frontierEntry) outcome {
	resp, attempts, err := FetchWithRetry(ctx, e.fetcher, entry.url, e.policy, e.logger)
	if err != nil {
		e.logger.Warn("page failed",
			"url", entry.url,
			"depth", entry.depth,
			"attempts", attempts,
			"error", err,
		)
		return outcome{
			entry: entry,
			failure: &model.PageFailure{
				URL:      entry.url,
				Depth:    entry.depth,
				Attempts: attempts,
				Error:    err.Error(),
			},
		}
	}

	links, err := e.extractor.ExtractLinks(resp.Body, entry.url)
	if err != nil {
		// Unparseable content still counts as a fetched page, just one
		// with no outbound links.
		e.logger.Debug("link extraction failed", "url", entry.url, "error", err)
		links = nil
	}

	pageHost := HostOf(entry.url)
	sameDomain := 0
	for _, link := range links {
		if HostOf(link) == pageHost {
			sameDomain++
		}
	}

	page := &model.PageResult{
		URL:             entry.url,
		Depth:           entry.depth,
		TotalLinks:      len(links),
		SameDomainLinks: sameDomain,
		SameDomainRatio: model.SameDomainRatio(sameDomain, len(links)),
		FetchDuration:   resp.Duration,
		StatusCode:      resp.StatusCode,
		Attempts:        attempts,
	}

	e.logger.Debug("page fetched",
		"url", entry.url,
		"depth", entry.depth,
		"links", page.TotalLinks,
		"same_domain", page.SameDomainLinks,
		"attempts", attempts,
	)

	return outcome{entry: entry, page: page, links: links}
}
