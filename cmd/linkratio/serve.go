package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linkratio/linkratio/internal/api"
	"github.com/linkratio/linkratio/internal/config"
	"github.com/linkratio/linkratio/internal/crawler"
	"github.com/linkratio/linkratio/internal/database"
	"github.com/linkratio/linkratio/internal/log"
	"github.com/linkratio/linkratio/internal/model"
	"github.com/linkratio/linkratio/internal/storage"
)

// shutdownGrace is how long in-flight HTTP requests get to finish
// after a shutdown signal.
const shutdownGrace = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for background crawl jobs",
		Long: `Serve starts an HTTP server that accepts crawl jobs and runs them in
the background.

  POST /api/crawl                  submit {"url": ..., "max_depth": ...},
                                   returns a task_id immediately
  GET  /api/crawl/status/<task_id> report job state and, once done, the
                                   run summary and result link
  GET  /health                     liveness probe

When an s3 section is configured, finished runs are uploaded as TSV
and the status response carries a presigned download link. Runs are
also saved to the local history database.

Examples:
  # Serve on the default address
  linkratio serve

  # Custom listen address and at most two concurrent jobs
  linkratio serve --listen :9090 --jobs 2`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"Listen address for the HTTP server")
	cmd.Flags().Int("jobs", 5,
		"Maximum number of crawl jobs running at once")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkratio in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
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

	maxJobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	return runServe(ctx, cfg, maxJobs, logger)
}

// buildServeConfig loads configuration for the serve command.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfigFile(cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr, _ = cmd.Flags().GetString("listen")
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runServe wires the engine, job manager, and HTTP server together and
// serves until the context is cancelled.
func runServe(ctx context.Context, cfg *config.Config, maxJobs int, logger *slog.Logger) error {
	db, err := database.Open(cfg.DatabaseDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	engine := crawler.New(cfg, crawler.WithLogger(logger))

	// Every finished job lands in the history database, so results
	// outlive the in-memory job table.
	runner := func(runCtx context.Context, seed string, maxDepth int) (*model.CrawlResult, error) {
		result, err := engine.Run(runCtx, seed, maxDepth)
		if err != nil {
			return nil, err
		}
		if _, err := db.SaveRun(runCtx, result); err != nil {
			logger.Warn("failed to save run to history", "error", err)
		}
		return result, nil
	}

	managerOpts := []api.JobManagerOption{
		api.WithMaxConcurrentJobs(maxJobs),
		api.WithJobLogger(logger),
	}
	if cfg.S3 != nil {
		store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to set up result storage: %w", err)
		}
		managerOpts = append(managerOpts, api.WithResultStore(store))
		logger.Info("result storage enabled", "bucket", cfg.S3.Bucket)
	}

	manager := api.NewJobManager(ctx, runner, managerOpts...)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
