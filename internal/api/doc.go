// Package api exposes crawl runs as asynchronous HTTP jobs.
//
// POST /api/crawl accepts a seed URL and depth and returns a task ID
// immediately; the crawl runs in the background. GET
// /api/crawl/status/{task_id} reports the job state and, once the run
// finishes, its summary and an optional download link for the stored
// TSV. The server is a plain net/http mux, suitable for wrapping in
// whatever middleware the deployment needs.
package api
