// Package main provides the entry point for the linkratio CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkratio.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkratio",
		Short: "Depth-bounded web crawler that measures same-domain link ratios",
		Long: `linkratio crawls a website breadth-first from a seed URL down to a
configurable depth and records, for every fetched page, how many of its
outbound links point back at the page's own domain.

Results are written as TSV by default, with optional JSON and Markdown
reports, a local SQLite run history, and an HTTP API for running crawls
as background jobs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
