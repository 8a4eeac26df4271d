package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig verifies that default values are applied.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.DefaultProtocol != "https" {
		t.Errorf("expected default protocol https, got %q", cfg.DefaultProtocol)
	}
	if cfg.OutputFile != "output.tsv" {
		t.Errorf("expected default output file output.tsv, got %q", cfg.OutputFile)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 max retries, got %d", cfg.MaxRetries)
	}
	if cfg.BaseBackoff != time.Second {
		t.Errorf("expected 1s base backoff, got %s", cfg.BaseBackoff)
	}
	if cfg.ConcurrencyLimit != 10 {
		t.Errorf("expected concurrency limit 10, got %d", cfg.ConcurrencyLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestConfigValidate tests configuration validation rules.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "unsupported protocol",
			mutate:  func(c *Config) { c.DefaultProtocol = "ftp" },
			wantErr: ErrInvalidProtocol,
		},
		{
			name:    "empty output file",
			mutate:  func(c *Config) { c.OutputFile = "" },
			wantErr: ErrNoOutputFile,
		},
		{
			name:    "zero retries",
			mutate:  func(c *Config) { c.MaxRetries = 0 },
			wantErr: ErrInvalidMaxRetries,
		},
		{
			name:    "negative backoff",
			mutate:  func(c *Config) { c.BaseBackoff = -time.Second },
			wantErr: ErrInvalidBackoff,
		},
		{
			name:    "negative jitter",
			mutate:  func(c *Config) { c.JitterMax = -time.Millisecond },
			wantErr: ErrInvalidJitter,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.ConcurrencyLimit = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative max pages",
			mutate:  func(c *Config) { c.MaxPages = -1 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "negative max body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name: "conflicting report formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.S3 = &S3Config{Region: "us-east-1"} },
			wantErr: ErrNoS3Bucket,
		},
		{
			name: "s3 negative link expiry",
			mutate: func(c *Config) {
				c.S3 = &S3Config{Bucket: "results", LinkExpiry: -time.Minute}
			},
			wantErr: ErrInvalidLinkExpiry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestDatabaseDir verifies the XDG fallback for the database directory.
func TestDatabaseDir(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.DatabaseDir(); got != XDGDataDir() {
		t.Errorf("expected XDG data dir %q, got %q", XDGDataDir(), got)
	}

	cfg.DBDir = "/tmp/linkratio-db"
	if got := cfg.DatabaseDir(); got != "/tmp/linkratio-db" {
		t.Errorf("expected explicit db dir, got %q", got)
	}
}
