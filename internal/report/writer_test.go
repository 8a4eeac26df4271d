package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linkratio/linkratio/internal/model"
)

func sampleResult() *model.CrawlResult {
	return &model.CrawlResult{
		Seed:      "https://example.com/",
		MaxDepth:  1,
		StartedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Pages: []model.PageResult{
			{
				URL:             "https://example.com/about",
				Depth:           1,
				TotalLinks:      4,
				SameDomainLinks: 1,
				SameDomainRatio: 0.25,
				FetchDuration:   250 * time.Millisecond,
				StatusCode:      200,
				Attempts:        1,
			},
			{
				URL:             "https://example.com/",
				Depth:           0,
				TotalLinks:      3,
				SameDomainLinks: 2,
				SameDomainRatio: 2.0 / 3.0,
				FetchDuration:   120 * time.Millisecond,
				StatusCode:      200,
				Attempts:        2,
			},
		},
		Failures: []model.PageFailure{
			{
				URL:      "https://example.com/broken",
				Depth:    1,
				Attempts: 3,
				Error:    "transient fetch failure for https://example.com/broken: server returned 503",
			},
		},
	}
}

func TestTSVWriterWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewTSVWriter(&buf)

	n, err := writer.Write(sampleResult())
	if err != nil {
		t.Fatalf("Write() returned unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() reported %d bytes, buffer holds %d", n, buf.Len())
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header plus two pages)", len(lines))
	}

	wantHeader := "url\tdepth\ttotal_links_found\tsame_domain_links\tsame_domain_ratio\tfetch_duration_seconds"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}

	// Rows are sorted by (depth, url): the seed comes first.
	if lines[1] != "https://example.com/\t0\t3\t2\t0.6667\t0.120" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "https://example.com/about\t1\t4\t1\t0.2500\t0.250" {
		t.Errorf("row 2 = %q", lines[2])
	}

	// Failed pages never become TSV rows.
	if strings.Contains(buf.String(), "broken") {
		t.Error("TSV output should not contain failed pages")
	}
}

func TestTSVWriterWithoutHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewTSVWriter(&buf, WithoutHeader())

	if _, err := writer.Write(sampleResult()); err != nil {
		t.Fatalf("Write() returned unexpected error: %v", err)
	}

	if strings.Contains(buf.String(), "total_links_found") {
		t.Error("output should not contain a header row")
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2", len(lines))
	}
}

func TestTSVWriterEmptyResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewTSVWriter(&buf)

	result := model.NewCrawlResult("https://example.com/", 0)
	if _, err := writer.Write(result); err != nil {
		t.Fatalf("Write() returned unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("got %d lines, want only the header", len(lines))
	}
}

func TestJSONWriterWrite(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writer := NewJSONWriter(&buf)

		if _, err := writer.Write(sampleResult()); err != nil {
			t.Fatalf("Write() returned unexpected error: %v", err)
		}

		var decoded model.CrawlResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Seed != "https://example.com/" {
			t.Errorf("Seed = %q, want %q", decoded.Seed, "https://example.com/")
		}
		if len(decoded.Pages) != 2 {
			t.Errorf("len(Pages) = %d, want 2", len(decoded.Pages))
		}
		if len(decoded.Failures) != 1 {
			t.Errorf("len(Failures) = %d, want 1", len(decoded.Failures))
		}
		// Compact mode has no indentation.
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("compact output should not be indented")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writer := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := writer.Write(sampleResult()); err != nil {
			t.Fatalf("Write() returned unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("pretty-printed output should be indented")
		}
	})
}

func TestMarkdownWriterWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewMarkdownWriter(&buf)

	if _, err := writer.Write(sampleResult()); err != nil {
		t.Fatalf("Write() returned unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Pages",
		"## Failures",
		"https://example.com/about",
		"Partial Failures",
		"0.6667",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestMarkdownWriterNoFailuresSection(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	result.Failures = nil

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(result); err != nil {
		t.Fatalf("Write() returned unexpected error: %v", err)
	}

	if strings.Contains(buf.String(), "## Failures") {
		t.Error("failure section should be omitted for clean runs")
	}
	if !strings.Contains(buf.String(), "Complete") {
		t.Error("status should read Complete for clean runs")
	}
}

// failWriter always errors, for exercising MultiWriter's stop-on-error
// behavior.
type failWriter struct{}

func (failWriter) Write(*model.CrawlResult) (int, error) {
	return 0, errors.New("sink unavailable")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every sink", func(t *testing.T) {
		t.Parallel()

		var tsv, jsonBuf bytes.Buffer
		multi := NewMultiWriter(NewTSVWriter(&tsv), NewJSONWriter(&jsonBuf))

		n, err := multi.Write(sampleResult())
		if err != nil {
			t.Fatalf("Write() returned unexpected error: %v", err)
		}
		if n != tsv.Len()+jsonBuf.Len() {
			t.Errorf("total bytes = %d, want %d", n, tsv.Len()+jsonBuf.Len())
		}
		if tsv.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("both sinks should have received output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		multi := NewMultiWriter(failWriter{}, NewTSVWriter(&buf))

		if _, err := multi.Write(sampleResult()); err == nil {
			t.Fatal("Write() should propagate the sink error")
		}
		if buf.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})
}
