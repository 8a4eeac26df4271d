// Package config provides configuration structures and utilities for linkratio.
// It defines the crawl, output, and server options, the YAML configuration
// file loader, and validation of user-provided values.
package config
