// Package report writes crawl results in various output formats.
//
// The primary format is TSV, one row per successfully fetched page,
// suitable for spreadsheets and downstream data tooling. JSON and
// Markdown writers cover machine integration and human-readable
// summaries. All writers implement the Writer interface, and
// MultiWriter fans one result out to several destinations at once.
package report
