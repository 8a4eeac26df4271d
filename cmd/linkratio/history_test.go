package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linkratio/linkratio/internal/database"
	"github.com/linkratio/linkratio/internal/model"

	"github.com/spf13/cobra"
)

// historyFixtureDB builds a history database holding one saved run and
// returns it together with the run's ID.
func historyFixtureDB(t *testing.T) (*database.CrawlDB, int64) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() returned unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result := &model.CrawlResult{
		Seed:      "https://example.com/",
		MaxDepth:  1,
		StartedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  2 * time.Second,
		Pages: []model.PageResult{
			{
				URL:             "https://example.com/",
				Depth:           0,
				TotalLinks:      4,
				SameDomainLinks: 3,
				SameDomainRatio: 0.75,
				FetchDuration:   120 * time.Millisecond,
				StatusCode:      200,
				Attempts:        1,
			},
		},
	}

	runID, err := db.SaveRun(context.Background(), result)
	if err != nil {
		t.Fatalf("SaveRun() returned unexpected error: %v", err)
	}
	return db, runID
}

// historyTestCmd returns a history command wired to a buffer and a
// background context, ready for the helpers under test.
func historyTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	cmd := NewHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	t.Run("prints saved runs", func(t *testing.T) {
		t.Parallel()

		db, _ := historyFixtureDB(t)
		cmd, out := historyTestCmd(t)

		if err := listRuns(cmd, db); err != nil {
			t.Fatalf("listRuns() returned unexpected error: %v", err)
		}

		got := out.String()
		if !strings.Contains(got, "ID") || !strings.Contains(got, "SEED") {
			t.Errorf("output missing table header: %q", got)
		}
		if !strings.Contains(got, "https://example.com/") {
			t.Errorf("output missing the saved seed: %q", got)
		}
	})

	t.Run("reports when nothing is saved", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })

		cmd, out := historyTestCmd(t)
		if err := listRuns(cmd, db); err != nil {
			t.Fatalf("listRuns() returned unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No saved runs.") {
			t.Errorf("output = %q, want empty-history notice", out.String())
		}
	})
}

func TestHistoryCmdHonorsDBDir(t *testing.T) {
	t.Parallel()

	// Save a run the way crawl --save does, into a relocated db_dir.
	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() returned unexpected error: %v", err)
	}
	result := &model.CrawlResult{
		Seed:      "https://relocated.example.com/",
		MaxDepth:  1,
		StartedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  time.Second,
		Pages: []model.PageResult{
			{URL: "https://relocated.example.com/", StatusCode: 200, Attempts: 1},
		},
	}
	if _, err := db.SaveRun(context.Background(), result); err != nil {
		t.Fatalf("SaveRun() returned unexpected error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() returned unexpected error: %v", err)
	}

	cfgPath := filepath.Join(t.TempDir(), ".linkratio")
	if err := os.WriteFile(cfgPath, []byte("db_dir: "+dbDir+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := NewHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-c", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("history returned unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "https://relocated.example.com/") {
		t.Errorf("output = %q, want the run saved under db_dir", out.String())
	}
}

func TestExportRun(t *testing.T) {
	t.Parallel()

	t.Run("exports TSV by default", func(t *testing.T) {
		t.Parallel()

		db, runID := historyFixtureDB(t)
		cmd, out := historyTestCmd(t)

		if err := exportRun(cmd, db, runID); err != nil {
			t.Fatalf("exportRun() returned unexpected error: %v", err)
		}

		got := out.String()
		if !strings.HasPrefix(got, "url\tdepth\t") {
			t.Errorf("output should start with the TSV header, got %q", got)
		}
		if !strings.Contains(got, "https://example.com/\t0\t4\t3\t0.7500\t") {
			t.Errorf("output missing the stored page row: %q", got)
		}
	})

	t.Run("exports JSON when requested", func(t *testing.T) {
		t.Parallel()

		db, runID := historyFixtureDB(t)
		cmd, out := historyTestCmd(t)
		if err := cmd.Flags().Set("json", "true"); err != nil {
			t.Fatal(err)
		}

		if err := exportRun(cmd, db, runID); err != nil {
			t.Fatalf("exportRun() returned unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), `"same_domain_ratio": 0.75`) {
			t.Errorf("output missing the JSON ratio field: %q", out.String())
		}
	})

	t.Run("fails for an unknown run", func(t *testing.T) {
		t.Parallel()

		db, _ := historyFixtureDB(t)
		cmd, _ := historyTestCmd(t)

		err := exportRun(cmd, db, 9999)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("error = %v, want not-found complaint", err)
		}
	})
}
