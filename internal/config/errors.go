package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidProtocol is returned when default_protocol is neither
	// "http" nor "https". Other schemes cannot be crawled.
	ErrInvalidProtocol = errors.New(`invalid default protocol: must be "http" or "https"`)

	// ErrNoOutputFile is returned when the output file path is empty.
	ErrNoOutputFile = errors.New("no output file specified")

	// ErrInvalidMaxRetries is returned when max_retries is less than one.
	// The value counts total fetch attempts, so at least one is required.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be at least 1")

	// ErrInvalidBackoff is returned when base_backoff is negative.
	ErrInvalidBackoff = errors.New("invalid base backoff: must be non-negative")

	// ErrInvalidJitter is returned when jitter_max is negative.
	// Use 0 to disable jitter entirely.
	ErrInvalidJitter = errors.New("invalid jitter max: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency_limit is less
	// than one. Zero workers would mean no crawling at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency limit: must be at least 1")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when max_pages is negative.
	// Use 0 to fall back to the default page cap.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when max_body_size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoS3Bucket is returned when an s3 section is present but names
	// no bucket to upload to.
	ErrNoS3Bucket = errors.New("invalid s3 config: bucket is required")

	// ErrInvalidLinkExpiry is returned when the presigned link expiry is
	// negative. Use 0 to fall back to the default expiry.
	ErrInvalidLinkExpiry = errors.New("invalid s3 link expiry: must be non-negative")
)
