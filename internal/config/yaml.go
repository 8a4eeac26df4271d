package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes YAML on top of the receiver's current values,
// so unset keys keep their defaults. Duration fields accept Go duration
// strings ("2s", "500ms"), which yaml.v3 does not handle natively.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DefaultProtocol  *string   `yaml:"default_protocol"`
		OutputFile       *string   `yaml:"output_file"`
		MaxRetries       *int      `yaml:"max_retries"`
		BaseBackoff      *string   `yaml:"base_backoff"`
		JitterMax        *string   `yaml:"jitter_max"`
		ConcurrencyLimit *int      `yaml:"concurrency_limit"`
		Timeout          *string   `yaml:"timeout"`
		MaxPages         *int      `yaml:"max_pages"`
		MaxBodySize      *int64    `yaml:"max_body_size"`
		UserAgent        *string   `yaml:"user_agent"`
		SaveToDB         *bool     `yaml:"save_to_db"`
		DBDir            *string   `yaml:"db_dir"`
		ListenAddr       *string   `yaml:"listen_addr"`
		S3               *S3Config `yaml:"s3"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.DefaultProtocol != nil {
		c.DefaultProtocol = *raw.DefaultProtocol
	}
	if raw.OutputFile != nil {
		c.OutputFile = *raw.OutputFile
	}
	if raw.MaxRetries != nil {
		c.MaxRetries = *raw.MaxRetries
	}
	if err := setDuration(&c.BaseBackoff, raw.BaseBackoff, "base_backoff"); err != nil {
		return err
	}
	if err := setDuration(&c.JitterMax, raw.JitterMax, "jitter_max"); err != nil {
		return err
	}
	if raw.ConcurrencyLimit != nil {
		c.ConcurrencyLimit = *raw.ConcurrencyLimit
	}
	if err := setDuration(&c.Timeout, raw.Timeout, "timeout"); err != nil {
		return err
	}
	if raw.MaxPages != nil {
		c.MaxPages = *raw.MaxPages
	}
	if raw.MaxBodySize != nil {
		c.MaxBodySize = *raw.MaxBodySize
	}
	if raw.UserAgent != nil {
		c.UserAgent = *raw.UserAgent
	}
	if raw.SaveToDB != nil {
		c.SaveToDB = *raw.SaveToDB
	}
	if raw.DBDir != nil {
		c.DBDir = *raw.DBDir
	}
	if raw.ListenAddr != nil {
		c.ListenAddr = *raw.ListenAddr
	}
	if raw.S3 != nil {
		c.S3 = raw.S3
	}

	return nil
}

// UnmarshalYAML decodes the s3 section, parsing link_expiry as a Go
// duration string.
func (s *S3Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Endpoint   string  `yaml:"endpoint"`
		Bucket     string  `yaml:"bucket"`
		Region     string  `yaml:"region"`
		AccessKey  string  `yaml:"access_key"`
		SecretKey  string  `yaml:"secret_key"`
		LinkExpiry *string `yaml:"link_expiry"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Endpoint = raw.Endpoint
	s.Bucket = raw.Bucket
	s.Region = raw.Region
	s.AccessKey = raw.AccessKey
	s.SecretKey = raw.SecretKey
	return setDuration(&s.LinkExpiry, raw.LinkExpiry, "link_expiry")
}

// setDuration parses an optional duration string into dst.
func setDuration(dst *time.Duration, src *string, key string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid %s %q: use a Go duration like \"2s\" or \"500ms\"", key, *src)
	}
	*dst = d
	return nil
}
