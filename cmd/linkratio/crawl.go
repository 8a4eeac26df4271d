package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linkratio/linkratio/internal/config"
	"github.com/linkratio/linkratio/internal/crawler"
	"github.com/linkratio/linkratio/internal/database"
	"github.com/linkratio/linkratio/internal/log"
	"github.com/linkratio/linkratio/internal/model"
	"github.com/linkratio/linkratio/internal/report"
)

// timeRounding is the display precision for durations in CLI output.
const timeRounding = 10 * time.Millisecond

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url> <max-depth>",
		Short: "Crawl a site and record per-page same-domain link ratios",
		Long: `Crawl performs a breadth-first crawl from the seed URL down to the
given depth. The seed has depth 0; a depth of 0 fetches only the seed.

Every successfully fetched page produces one TSV row with the page URL,
its depth, the number of links found, how many of them stay on the
page's own domain, the resulting ratio, and the fetch duration. Pages
that fail after retries are reported but produce no TSV row, and the
command still exits 0.

A bare seed like "example.com" gets the configured default protocol
(https by default) prepended.

Examples:
  # Crawl example.com two levels deep
  linkratio crawl example.com 2

  # Fetch only the seed page
  linkratio crawl https://example.com 0

  # Write the TSV somewhere else and raise the concurrency
  linkratio crawl -o /tmp/ratios.tsv --concurrency 30 example.com 3

  # Also print a JSON report and save the run to the local history
  linkratio crawl --json --save example.com 1`,
		Args: cobra.ExactArgs(2),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Total fetch attempts per page, including the first")
	cmd.Flags().Duration("backoff", config.DefaultBaseBackoff,
		"Base delay before the first retry (doubles per retry)")
	cmd.Flags().Duration("jitter", config.DefaultJitterMax,
		"Upper bound of the random jitter added to each backoff delay")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrencyLimit,
		"Number of concurrent page fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for a single fetch attempt")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per run")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkratio in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"TSV output file path (creates directories if needed)")
	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON report to stdout (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print a Markdown report to stdout (mutually exclusive with --json)")
	cmd.Flags().BoolP("save", "s", false,
		"Save the run to the local SQLite history")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	maxDepth, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("max depth must be an integer, got %q", args[1])
	}
	if maxDepth < 0 {
		return crawler.ErrInvalidDepth
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, args[0], maxDepth, logger, cmd)
}

// loadConfigFile resolves and loads the configuration file for cmd,
// falling back to defaults when no file exists. An explicit --config
// path that does not exist is an error.
func loadConfigFile(cmd *cobra.Command) (*config.Config, error) {
	configPathFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	configPath := config.FindConfigFile(configPathFlag)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if configPathFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPathFlag)
	}

	return cfg, nil
}

// buildConfig creates a Config from the config file and command flags.
// Flag values override file values only when the flag was actually set,
// so a config file remains effective under the cobra flag defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfigFile(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("retries") {
		cfg.MaxRetries, _ = flags.GetInt("retries")
	}
	if flags.Changed("backoff") {
		cfg.BaseBackoff, _ = flags.GetDuration("backoff")
	}
	if flags.Changed("jitter") {
		cfg.JitterMax, _ = flags.GetDuration("jitter")
	}
	if flags.Changed("concurrency") {
		cfg.ConcurrencyLimit, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("output") {
		cfg.OutputFile, _ = flags.GetString("output")
	}

	cfg.JSONReport, _ = flags.GetBool("json")
	cfg.MarkdownReport, _ = flags.GetBool("markdown")
	if flags.Changed("save") {
		cfg.SaveToDB, _ = flags.GetBool("save")
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl executes the crawl and writes its outputs.
func runCrawl(ctx context.Context, cfg *config.Config, seed string, maxDepth int, logger *slog.Logger, cmd *cobra.Command) error {
	engine := crawler.New(cfg, crawler.WithLogger(logger))

	result, err := engine.Run(ctx, seed, maxDepth)
	if err != nil {
		return err
	}

	if err := writeResults(cfg, result, cmd); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg, result, logger); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Crawled %d page(s) in %s, wrote %s\n",
		result.PagesFetched(), result.Duration.Round(timeRounding), cfg.OutputFile)
	if result.PagesFailed() > 0 {
		// Partial failures are part of normal operation on the open
		// web; report them without failing the command.
		fmt.Fprintf(cmd.OutOrStdout(), "%d page(s) failed after retries (see log for details)\n",
			result.PagesFailed())
	}

	return nil
}

// writeResults writes the TSV file and any requested extra report.
func writeResults(cfg *config.Config, result *model.CrawlResult, cmd *cobra.Command) error {
	if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(cfg.OutputFile) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := report.NewTSVWriter(f).Write(result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write TSV output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	switch {
	case cfg.JSONReport:
		_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Write(result)
	case cfg.MarkdownReport:
		_, err = report.NewMarkdownWriter(cmd.OutOrStdout()).Write(result)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// saveRun stores the run in the local history database.
func saveRun(ctx context.Context, cfg *config.Config, result *model.CrawlResult, logger *slog.Logger) error {
	db, err := database.Open(cfg.DatabaseDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to history", "run_id", runID, "dir", cfg.DatabaseDir())
	return nil
}

