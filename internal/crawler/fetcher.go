package crawler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/linkratio/linkratio/internal/config"
)

// FetchResponse is the result of a successful page fetch.
type FetchResponse struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Body is the response body, truncated to the configured limit.
	Body []byte

	// ContentType is the value of the Content-Type response header.
	ContentType string

	// Duration is the wall-clock time of the fetch. It is stamped by the
	// timing decorator, not by the fetcher itself.
	Duration time.Duration
}

// Fetcher fetches a single URL. Implementations classify failures as
// TransientError or PermanentError so the retry policy can decide
// whether another attempt is worthwhile.
//
// Design decision: We keep Fetcher as a one-method interface because:
//  1. The engine and retry policy only ever need Fetch
//  2. Tests can swap in scripted fetchers without HTTP servers
//  3. Decorators (timing, retries) stack naturally
type Fetcher interface {
	// Fetch performs an HTTP GET for the URL and returns the response,
	// or a TransientError/PermanentError describing the failure.
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// HTTPFetcher fetches pages over plain HTTP using net/http.
type HTTPFetcher struct {
	// client is the underlying HTTP client.
	client *http.Client

	// timeout is the per-request timeout for a single attempt.
	timeout time.Duration

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits how many body bytes are read.
	maxBodySize int64
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
// Tests use this to point the fetcher at httptest servers.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// NewHTTPFetcher creates an HTTPFetcher with sensible defaults.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{},
		timeout:     config.DefaultTimeout,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs an HTTP GET and classifies failures.
//
// Classification:
//   - network errors, timeouts, 5xx responses: TransientError
//   - malformed URLs, DNS not-found, 4xx responses: PermanentError
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &PermanentError{URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyNetworkError(pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &TransientError{URL: pageURL, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &PermanentError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		// The connection died mid-body; worth retrying.
		return nil, &TransientError{URL: pageURL, Err: err}
	}

	return &FetchResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// timedFetcher decorates a Fetcher with wall-clock timing. It stamps
// the elapsed time of each attempt into the response without altering
// the result or error behavior of the wrapped fetcher.
type timedFetcher struct {
	inner Fetcher
}

// NewTimedFetcher wraps a Fetcher so each successful response carries
// the duration of the attempt that produced it.
func NewTimedFetcher(inner Fetcher) Fetcher {
	return &timedFetcher{inner: inner}
}

// Fetch times the wrapped fetch.
func (t *timedFetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	start := time.Now()
	resp, err := t.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	resp.Duration = time.Since(start)
	return resp, nil
}
