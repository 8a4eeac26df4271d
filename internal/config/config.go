package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Retry and backoff defaults follow common crawler practice: a small
// number of attempts with exponential backoff and one second of jitter
// is enough to ride out transient network hiccups without hammering
// an already struggling server.
const (
	// DefaultProtocol is the scheme prepended to a seed URL that omits one.
	// We default to HTTPS because the vast majority of sites redirect
	// plain HTTP there anyway, and it avoids one round trip.
	DefaultProtocol = "https"

	// DefaultOutputFile is the path for the TSV result records.
	DefaultOutputFile = "output.tsv"

	// DefaultMaxRetries is the total number of fetch attempts per URL,
	// including the first one. Three attempts covers the typical
	// "one blip, one unlucky retry" case.
	DefaultMaxRetries = 3

	// DefaultBaseBackoff is the delay before the first retry.
	// Subsequent retries double it.
	DefaultBaseBackoff = 1 * time.Second

	// DefaultJitterMax bounds the random jitter added to each backoff
	// delay. Jitter prevents concurrent fetches that failed together
	// from retrying in lockstep.
	DefaultJitterMax = 1 * time.Second

	// DefaultConcurrencyLimit is the number of simultaneously in-flight
	// fetches. High branching factors at shallow depths would otherwise
	// fan out without bound.
	DefaultConcurrencyLimit = 10

	// DefaultTimeout is the per-request timeout for a single fetch attempt.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxPages caps the total number of pages fetched per run.
	// This prevents runaway crawls on sites that generate URLs endlessly.
	DefaultMaxPages = 1000

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for any realistic HTML page while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies linkratio in HTTP requests.
	DefaultUserAgent = "linkratio/1.0 (+https://github.com/linkratio/linkratio)"

	// DefaultListenAddr is the bind address for the job API server.
	DefaultListenAddr = ":8080"

	// DefaultLinkExpiry is the lifetime of presigned S3 result links.
	DefaultLinkExpiry = 30000 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "linkratio"
)

// Config holds all configuration options for a crawl.
// It is populated from the YAML config file and CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. The S3 settings are the one exception because they form a
// cohesive optional unit.
type Config struct {
	// DefaultProtocol is the scheme used when the seed URL omits one.
	DefaultProtocol string `yaml:"default_protocol"`

	// OutputFile is the path for the TSV result records.
	OutputFile string `yaml:"output_file"`

	// MaxRetries is the total number of fetch attempts per URL,
	// including the initial one. Must be at least 1.
	MaxRetries int `yaml:"max_retries"`

	// BaseBackoff is the delay before the first retry. The delay doubles
	// before each subsequent retry.
	BaseBackoff time.Duration `yaml:"base_backoff"`

	// JitterMax is the upper bound (exclusive) of the uniform random
	// jitter added to every backoff delay.
	JitterMax time.Duration `yaml:"jitter_max"`

	// ConcurrencyLimit is the maximum number of simultaneously in-flight
	// fetch operations.
	ConcurrencyLimit int `yaml:"concurrency_limit"`

	// Timeout is the per-request timeout for a single fetch attempt.
	// A timed-out attempt counts as a transient failure and is retried.
	Timeout time.Duration `yaml:"timeout"`

	// MaxPages caps the number of pages fetched in a single run.
	// Zero means use the default.
	MaxPages int `yaml:"max_pages"`

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64 `yaml:"max_body_size"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `yaml:"user_agent"`

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool `yaml:"-"`

	// JSONReport switches the report written to OutputFile from TSV to JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool `yaml:"-"`

	// MarkdownReport switches the report written to OutputFile from TSV
	// to Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool `yaml:"-"`

	// SaveToDB indicates whether finished runs are stored in the SQLite
	// crawl database for later inspection via "linkratio history".
	SaveToDB bool `yaml:"save_to_db"`

	// DBDir is the directory for the SQLite database. Empty means the
	// XDG data directory.
	DBDir string `yaml:"db_dir"`

	// ListenAddr is the bind address for "linkratio serve".
	ListenAddr string `yaml:"listen_addr"`

	// S3 configures optional upload of crawl output to an S3-compatible
	// object store. Nil disables uploading.
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config holds settings for uploading crawl output to an
// S3-compatible object store and handing back presigned links.
type S3Config struct {
	// Endpoint is the object store endpoint URL. Set this for
	// S3-compatible stores (MinIO, LocalStack); leave empty for AWS.
	Endpoint string `yaml:"endpoint"`

	// Bucket is the target bucket for uploaded result files.
	Bucket string `yaml:"bucket"`

	// Region is the bucket region.
	Region string `yaml:"region"`

	// AccessKey and SecretKey are static credentials. Leave both empty
	// to use the ambient AWS credential chain.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// LinkExpiry is the lifetime of presigned download links.
	LinkExpiry time.Duration `yaml:"link_expiry"`
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, retry
// counts). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		DefaultProtocol:  DefaultProtocol,
		OutputFile:       DefaultOutputFile,
		MaxRetries:       DefaultMaxRetries,
		BaseBackoff:      DefaultBaseBackoff,
		JitterMax:        DefaultJitterMax,
		ConcurrencyLimit: DefaultConcurrencyLimit,
		Timeout:          DefaultTimeout,
		MaxPages:         DefaultMaxPages,
		MaxBodySize:      DefaultMaxBodySize,
		UserAgent:        DefaultUserAgent,
		ListenAddr:       DefaultListenAddr,
	}
}

// XDGDataDir returns the XDG data directory for linkratio.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/linkratio
// On macOS: ~/Library/Application Support/linkratio
// On Windows: %LOCALAPPDATA%\linkratio
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkratio.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.DefaultProtocol != "http" && c.DefaultProtocol != "https" {
		return ErrInvalidProtocol
	}

	if c.OutputFile == "" {
		return ErrNoOutputFile
	}

	// At least one attempt is required; zero would mean never fetching.
	if c.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}

	if c.BaseBackoff < 0 {
		return ErrInvalidBackoff
	}

	if c.JitterMax < 0 {
		return ErrInvalidJitter
	}

	if c.ConcurrencyLimit < 1 {
		return ErrInvalidConcurrency
	}

	// Timeout must be positive; zero timeout would cause immediate failures.
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive.
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.S3 != nil {
		if c.S3.Bucket == "" {
			return ErrNoS3Bucket
		}
		if c.S3.LinkExpiry < 0 {
			return ErrInvalidLinkExpiry
		}
	}

	return nil
}

// DatabaseDir returns the directory for the SQLite crawl database,
// falling back to the XDG data directory when unset.
func (c *Config) DatabaseDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}
