package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/linkratio/linkratio/internal/model"
)

// MarkdownWriter outputs crawl results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titleCaser renders status words in title case for headings and
	// status cells.
	titleCaser cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titleCaser: cases.Title(language.English),
	}
}

// Write outputs the crawl result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	result.SortPages()

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePages(md, result)
	w.writeFailures(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the run summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + result.Seed + "`"},
			{"Max Depth", strconv.Itoa(result.MaxDepth)},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration.Round(time.Millisecond).String()},
			{"Pages Fetched", strconv.Itoa(result.PagesFetched())},
			{"Pages Failed", strconv.Itoa(result.PagesFailed())},
			{"Status", w.statusText(result)},
		},
	})
	md.PlainText("")
}

// statusText summarizes the run outcome for the header table.
func (w *MarkdownWriter) statusText(result *model.CrawlResult) string {
	if result.PagesFailed() > 0 {
		return "⚠️ " + w.titleCaser.String("partial failures")
	}
	return "✅ " + w.titleCaser.String("complete")
}

// writePages writes the per-page metric table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Pages")
	md.PlainText("")

	if result.PagesFetched() == 0 {
		md.PlainText("No pages were fetched.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(result.Pages))
	for _, page := range result.Pages {
		rows = append(rows, []string{
			"`" + page.URL + "`",
			strconv.Itoa(page.Depth),
			strconv.Itoa(page.TotalLinks),
			strconv.Itoa(page.SameDomainLinks),
			formatRatio(page.SameDomainRatio),
			page.FetchDuration.Round(time.Millisecond).String(),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "Links", "Same Domain", "Ratio", "Fetch Time"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed-page table, omitted entirely when the
// run had no failures.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, result *model.CrawlResult) {
	if result.PagesFailed() == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(result.Failures))
	for _, failure := range result.Failures {
		rows = append(rows, []string{
			"`" + failure.URL + "`",
			strconv.Itoa(failure.Depth),
			strconv.Itoa(failure.Attempts),
			failure.Error,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "Attempts", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	md.Warningf("%d page(s) could not be fetched after retries; they contribute no rows to the TSV output.", result.PagesFailed())
	md.PlainText("")
}
