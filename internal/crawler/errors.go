package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Setup errors abort a run before traversal begins. Per-page fetch
// errors, in contrast, are contained inside the engine.
var (
	// ErrInvalidSeed is returned when the seed URL cannot be parsed into
	// an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidDepth is returned when the requested max depth is negative.
	ErrInvalidDepth = errors.New("invalid max depth: must be non-negative")
)

// TransientError is a fetch failure plausibly resolved by retrying:
// timeouts, connection resets, and 5xx server responses.
type TransientError struct {
	// URL is the URL whose fetch failed.
	URL string

	// StatusCode is the HTTP status, or 0 for network-level failures.
	StatusCode int

	// Err is the underlying error, nil for pure status failures.
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient fetch failure for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transient fetch failure for %s: server returned %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a fetch failure that retrying cannot fix: malformed
// URLs, DNS resolution failures, and 4xx client responses.
type PermanentError struct {
	// URL is the URL whose fetch failed.
	URL string

	// StatusCode is the HTTP status, or 0 for non-HTTP failures.
	StatusCode int

	// Err is the underlying error, nil for pure status failures.
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent fetch failure for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("permanent fetch failure for %s: server returned %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyNetworkError wraps a network-level error from the HTTP client
// as transient or permanent.
//
// DNS "no such host" is classified as permanent: a name that does not
// resolve now is overwhelmingly a dead or mistyped link, and retrying
// only slows the crawl down. Timeouts and connection-level errors are
// transient.
func classifyNetworkError(url string, err error) error {
	// Context deadlines are per-attempt timeouts, so retryable.
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{URL: url, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return &PermanentError{URL: url, Err: err}
		}
		// Temporary resolver failures are worth retrying.
		return &TransientError{URL: url, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{URL: url, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientError{URL: url, Err: err}
	}

	// url.Error from a malformed request, unsupported scheme, and the
	// like: not retryable.
	return &PermanentError{URL: url, Err: err}
}
