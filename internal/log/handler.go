package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces credentials found in logged URLs.
const MaskValue = "***"

// MaxAttrLen is the maximum length of a logged string attribute value.
// Longer values are truncated with an ellipsis marker. Crawlers log a
// lot of URLs and the occasional page snippet; an unbounded value can
// make a single log line megabytes long.
const MaxAttrLen = 2048

// CrawlHandler wraps an slog.Handler to clean up attribute values
// before they reach the log. It masks userinfo embedded in URL values
// and truncates values that exceed MaxAttrLen.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Components only ever see a *slog.Logger
type CrawlHandler struct {
	// handler is the underlying slog handler that receives cleaned records.
	handler slog.Handler
}

// NewCrawlHandler creates a new CrawlHandler wrapping the given handler.
// If handler is nil, the returned CrawlHandler uses slog.Default().Handler().
func NewCrawlHandler(handler slog.Handler) *CrawlHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &CrawlHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *CrawlHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle cleans the record's attributes and passes it to the underlying handler.
func (h *CrawlHandler) Handle(ctx context.Context, r slog.Record) error {
	cleaned := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		cleaned.AddAttrs(h.cleanAttr(a))
		return true
	})

	return h.handler.Handle(ctx, cleaned)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are cleaned before being added.
func (h *CrawlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleanedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleanedAttrs[i] = h.cleanAttr(a)
	}
	return &CrawlHandler{handler: h.handler.WithAttrs(cleanedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *CrawlHandler) WithGroup(name string) slog.Handler {
	return &CrawlHandler{handler: h.handler.WithGroup(name)}
}

// cleanAttr cleans a single attribute, recursively handling groups.
func (h *CrawlHandler) cleanAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cleanedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cleanedAttrs[i] = h.cleanAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleanedAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	val := a.Value.String()
	val = maskURLCredentials(val)
	if len(val) > MaxAttrLen {
		val = val[:MaxAttrLen] + "...(truncated)"
	}

	return slog.String(a.Key, val)
}

// maskURLCredentials masks the userinfo portion of a URL value.
// Non-URL values and URLs without userinfo pass through unchanged.
func maskURLCredentials(val string) string {
	if !strings.Contains(val, "://") || !strings.Contains(val, "@") {
		return val
	}

	u, err := url.Parse(val)
	if err != nil || u.User == nil {
		return val
	}

	u.User = url.User(MaskValue)
	return u.String()
}

// NewLogger creates a new slog.Logger with crawl-aware handling and
// human-readable text output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewCrawlHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger with crawl-aware handling that
// outputs JSON format. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewCrawlHandler(jsonHandler))
}
