package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linkratio/linkratio/internal/database"
	"github.com/linkratio/linkratio/internal/log"
	"github.com/linkratio/linkratio/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List saved crawl runs or re-export one",
		Long: `History lists crawl runs previously saved with --save (or through the
HTTP API), newest first. Given a run ID, it re-exports that run's
records without re-crawling.

Examples:
  # List all saved runs
  linkratio history

  # List runs for one seed
  linkratio history --seed https://example.com/

  # Re-export run 3 as TSV on stdout
  linkratio history 3

  # Re-export run 3 as JSON
  linkratio history 3 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("seed", "", "Only list runs for this seed URL")
	cmd.Flags().BoolP("json", "j", false, "Export the run as JSON instead of TSV")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkratio in current or home directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	logger := log.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	// Runs are stored where crawl --save and serve put them, which the
	// db_dir config key can relocate.
	cfg, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no saved runs found (run `linkratio crawl --save` first): %w", err)
	}
	defer db.Close()

	if len(args) == 0 {
		return listRuns(cmd, db)
	}

	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("run ID must be an integer, got %q", args[0])
	}

	logger.Debug("exporting run", "run_id", runID)
	return exportRun(cmd, db, runID)
}

// listRuns prints a table of saved runs.
func listRuns(cmd *cobra.Command, db *database.CrawlDB) error {
	seed, err := cmd.Flags().GetString("seed")
	if err != nil {
		return err
	}

	runs, err := db.ListRuns(cmd.Context(), seed)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tDEPTH\tSTARTED\tDURATION\tPAGES\tFAILED")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Seed,
			run.MaxDepth,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Duration.Round(timeRounding),
			run.PagesFetched,
			run.PagesFailed,
		)
	}
	return w.Flush()
}

// exportRun writes one stored run to stdout as TSV or JSON.
func exportRun(cmd *cobra.Command, db *database.CrawlDB, runID int64) error {
	result, err := db.GetRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if result == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	var writer report.Writer
	if asJSON {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewTSVWriter(cmd.OutOrStdout())
	}

	if _, err := writer.Write(result); err != nil {
		return fmt.Errorf("failed to export run %d: %w", runID, err)
	}
	return nil
}
