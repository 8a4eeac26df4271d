package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/linkratio/linkratio/internal/model"
)

// tsvColumns is the TSV header row. Column order is part of the output
// contract; downstream tooling selects columns by position.
var tsvColumns = []string{
	"url",
	"depth",
	"total_links_found",
	"same_domain_links",
	"same_domain_ratio",
	"fetch_duration_seconds",
}

// TSVWriter outputs one tab-separated row per successfully fetched
// page. Failed pages are deliberately absent: the TSV is the record of
// pages the crawl actually measured, and failures live in the run
// summary instead.
//
// Design decision: We emit TSV by hand rather than through
// encoding/csv with a tab delimiter because URLs cannot contain raw
// tabs or newlines after normalization, so quoting rules would never
// trigger - they would only complicate consumers that split on '\t'.
type TSVWriter struct {
	baseWriter

	// header controls whether the column header row is written.
	header bool
}

// TSVWriterOption configures a TSVWriter.
type TSVWriterOption func(*TSVWriter)

// WithoutHeader suppresses the column header row, for appending to an
// existing file or piping into tools that want bare rows.
func WithoutHeader() TSVWriterOption {
	return func(w *TSVWriter) {
		w.header = false
	}
}

// NewTSVWriter creates a TSVWriter that outputs to the given writer.
// The header row is written by default.
func NewTSVWriter(output io.Writer, opts ...TSVWriterOption) *TSVWriter {
	w := &TSVWriter{
		baseWriter: newBaseWriter(output),
		header:     true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the page records as TSV rows sorted by (depth, url).
func (w *TSVWriter) Write(result *model.CrawlResult) (int, error) {
	result.SortPages()

	var buf bytes.Buffer
	if w.header {
		buf.WriteString(strings.Join(tsvColumns, "\t"))
		buf.WriteByte('\n')
	}

	for _, page := range result.Pages {
		fmt.Fprintf(&buf, "%s\t%d\t%d\t%d\t%s\t%s\n",
			page.URL,
			page.Depth,
			page.TotalLinks,
			page.SameDomainLinks,
			formatRatio(page.SameDomainRatio),
			formatSeconds(page.FetchDuration.Seconds()),
		)
	}

	return w.output.Write(buf.Bytes())
}

// formatRatio renders a same-domain ratio with fixed precision so that
// rows line up and diffs between runs stay readable.
func formatRatio(ratio float64) string {
	return strconv.FormatFloat(ratio, 'f', 4, 64)
}

// formatSeconds renders a duration in seconds with millisecond
// precision.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
