package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkratio/linkratio/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag with config file default", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("force") == nil {
			t.Fatal("expected force flag")
		}
	})
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates configuration file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".linkratio")

		cmd := NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("init returned unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("config file was not created: %v", err)
		}
		for _, key := range []string{"default_protocol", "max_retries", "concurrency_limit", "output_file"} {
			if !strings.Contains(string(content), key) {
				t.Errorf("template missing key %q", key)
			}
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".linkratio")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err == nil {
			t.Error("init should refuse to overwrite an existing file")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".linkratio")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path, "-f"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("init -f returned unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "existing" {
			t.Error("file should have been overwritten")
		}
	})

	t.Run("generated template parses as valid config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".linkratio")

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("init returned unexpected error: %v", err)
		}

		cfg, err := config.LoadFile(path)
		if err != nil {
			t.Fatalf("generated template does not load: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("generated template does not validate: %v", err)
		}
	})
}
