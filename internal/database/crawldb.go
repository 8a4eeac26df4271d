package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/linkratio/linkratio/internal/model"
)

// dbFileName is the SQLite file name inside the data directory.
const dbFileName = "linkratio.db"

// CrawlDB provides SQLite-based storage for crawl run history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We store pages as relational rows rather than one
// JSON blob per run. The rows mirror the TSV columns, so re-exporting
// an old run or querying across runs ("all pages of example.com ever
// fetched") is a plain SQL query instead of JSON surgery.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection
	// avoids database-locked errors from the driver.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per completed crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages_fetched INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per successfully fetched page, mirroring the TSV columns
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		total_links INTEGER NOT NULL,
		same_domain_links INTEGER NOT NULL,
		same_domain_ratio REAL NOT NULL,
		fetch_duration_ms INTEGER NOT NULL,
		status_code INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- One row per page that failed after retries
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		error TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed crawl run with all its pages and failures.
// Returns the run's database ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, result *model.CrawlResult) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, max_depth, started_at, duration_ms, pages_fetched, pages_failed)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.Seed,
		result.MaxDepth,
		result.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		result.Duration.Milliseconds(),
		result.PagesFetched(),
		result.PagesFailed(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run ID: %w", err)
	}

	for _, page := range result.Pages {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, depth, total_links, same_domain_links, same_domain_ratio, fetch_duration_ms, status_code, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			page.URL,
			page.Depth,
			page.TotalLinks,
			page.SameDomainLinks,
			page.SameDomainRatio,
			page.FetchDuration.Milliseconds(),
			page.StatusCode,
			page.Attempts,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", page.URL, err)
		}
	}

	for _, failure := range result.Failures {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO failures (run_id, url, depth, attempts, error)
		VALUES (?, ?, ?, ?, ?)
		`,
			runID,
			failure.URL,
			failure.Depth,
			failure.Attempts,
			failure.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert failure %s: %w", failure.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading every page row.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Seed is the normalized seed URL the run started from.
	Seed string

	// MaxDepth is the depth bound the run was configured with.
	MaxDepth int

	// StartedAt is when the run started.
	StartedAt time.Time

	// Duration is the total elapsed time of the run.
	Duration time.Duration

	// PagesFetched is the number of successfully fetched pages.
	PagesFetched int

	// PagesFailed is the number of pages that failed after retries.
	PagesFailed int
}

// ListRuns returns metadata for all stored runs, newest first.
// When seed is non-empty, only runs for that seed are returned.
func (cdb *CrawlDB) ListRuns(ctx context.Context, seed string) ([]RunMetadata, error) {
	query := `
	SELECT id, seed, max_depth, started_at, duration_ms, pages_fetched, pages_failed
	FROM runs
	`
	args := make([]any, 0, 1)
	if seed != "" {
		query += " WHERE seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var durationMS int64

		if err := rows.Scan(
			&meta.ID,
			&meta.Seed,
			&meta.MaxDepth,
			&startedAt,
			&durationMS,
			&meta.PagesFetched,
			&meta.PagesFailed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun reconstructs a stored run, including all pages and failures.
// Returns nil without error when no run has the given ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.CrawlResult, error) {
	var result model.CrawlResult
	var startedAt string
	var durationMS int64

	err := cdb.db.QueryRowContext(ctx, `
	SELECT seed, max_depth, started_at, duration_ms
	FROM runs
	WHERE id = ?
	`, id).Scan(&result.Seed, &result.MaxDepth, &startedAt, &durationMS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	result.StartedAt = parseTimestamp(startedAt)
	result.Duration = time.Duration(durationMS) * time.Millisecond

	pages, err := cdb.pagesForRun(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Pages = pages

	failures, err := cdb.failuresForRun(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Failures = failures

	return &result, nil
}

// pagesForRun loads the page rows of a run ordered by (depth, url).
func (cdb *CrawlDB) pagesForRun(ctx context.Context, runID int64) ([]model.PageResult, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, depth, total_links, same_domain_links, same_domain_ratio, fetch_duration_ms, status_code, attempts
	FROM pages
	WHERE run_id = ?
	ORDER BY depth, url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := make([]model.PageResult, 0)
	for rows.Next() {
		var page model.PageResult
		var fetchMS int64

		if err := rows.Scan(
			&page.URL,
			&page.Depth,
			&page.TotalLinks,
			&page.SameDomainLinks,
			&page.SameDomainRatio,
			&fetchMS,
			&page.StatusCode,
			&page.Attempts,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.FetchDuration = time.Duration(fetchMS) * time.Millisecond
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// failuresForRun loads the failure rows of a run ordered by (depth, url).
func (cdb *CrawlDB) failuresForRun(ctx context.Context, runID int64) ([]model.PageFailure, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, depth, attempts, error
	FROM failures
	WHERE run_id = ?
	ORDER BY depth, url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	failures := make([]model.PageFailure, 0)
	for rows.Next() {
		var failure model.PageFailure
		if err := rows.Scan(
			&failure.URL,
			&failure.Depth,
			&failure.Attempts,
			&failure.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, failure)
	}

	return failures, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
