package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cavalo-mORTO/kore-mustach/internal/config"
	"github.com/cavalo-mORTO/kore-mustach/internal/renderlog"
)

// historyCmd is the parent command for render log operations: the
// hash-chained JSONL + SQLite trail of render invocations, recorded
// when renderlog.enabled is true in config.yaml.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query and verify the render log",
	Long: `The render log records every render invocation made through
'mustach render' when renderlog.enabled is set in config.yaml,
including the template, flags, output size, error code, and latency.
Entries are hash-chained: each entry's hash depends on the previous
entry, making tampering detectable.`,
}

func init() {
	historyCmd.AddCommand(historyTailCmd)
	historyCmd.AddCommand(historyQueryCmd)
	historyCmd.AddCommand(historyVerifyCmd)
}

func openRenderLog() (*renderlog.Log, error) {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	dir := cfg.RenderLog.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(configDir, dir)
	}
	return renderlog.New(dir)
}

func printRenderEntry(e renderlog.Entry) {
	status := "ok"
	if e.Code != 0 {
		status = fmt.Sprintf("error(%d)", e.Code)
	}
	fmt.Printf("#%-6d %-30s %-10s flags=%-4d in=%-6d out=%-6d %6dus  %s\n",
		e.Seq, e.TemplateID, status, e.Flags, e.DataBytes, e.OutputBytes, e.LatencyUs, e.Timestamp)
}

var historyTailLimit int

var historyTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent render log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRenderLog()
		if err != nil {
			return fmt.Errorf("opening render log: %w", err)
		}
		defer rl.Close()

		entries, err := rl.Tail(historyTailLimit)
		if err != nil {
			return fmt.Errorf("reading render log: %w", err)
		}
		for _, e := range entries {
			printRenderEntry(e)
		}
		return nil
	},
}

func init() {
	historyTailCmd.Flags().IntVarP(&historyTailLimit, "limit", "n", 20, "Number of recent entries to show")
}

var (
	historyQueryTemplate   string
	historyQueryFailedOnly bool
	historyQuerySince      string
	historyQueryLimit      int
)

var historyQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query render log entries with filters",
	Long: `Query the render log with filters. Supports filtering by template
ID, failures only, and a time range.

Examples:
  mustach history query --template welcome.mustache --failed-only
  mustach history query --since 1h --limit 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRenderLog()
		if err != nil {
			return fmt.Errorf("opening render log: %w", err)
		}
		defer rl.Close()

		entries, err := rl.Query(renderlog.QueryParams{
			TemplateID: historyQueryTemplate,
			FailedOnly: historyQueryFailedOnly,
			Since:      historyQuerySince,
			Limit:      historyQueryLimit,
		})
		if err != nil {
			return fmt.Errorf("render log query failed: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No matching render log entries found.")
			return nil
		}
		for _, e := range entries {
			printRenderEntry(e)
		}
		return nil
	},
}

func init() {
	historyQueryCmd.Flags().StringVar(&historyQueryTemplate, "template", "", "Filter by template ID")
	historyQueryCmd.Flags().BoolVar(&historyQueryFailedOnly, "failed-only", false, "Show only failed renders")
	historyQueryCmd.Flags().StringVar(&historyQuerySince, "since", "", "Show entries since duration (e.g. 1h, 30m) or RFC3339 timestamp")
	historyQueryCmd.Flags().IntVar(&historyQueryLimit, "limit", 50, "Maximum number of entries to return")
}

var historyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify render log hash chain integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := openRenderLog()
		if err != nil {
			return fmt.Errorf("opening render log: %w", err)
		}
		defer rl.Close()

		result, err := rl.VerifyChain()
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if result.Valid {
			fmt.Printf("[mustach] hash chain VALID (%d entries verified)\n", result.EntriesChecked)
			return nil
		}
		fmt.Printf("[mustach] hash chain BROKEN at entry %d\n", result.BrokenAt)
		fmt.Printf("  expected: %s\n  actual:   %s\n", result.ExpectedHash, result.ActualHash)
		return fmt.Errorf("render log integrity check failed")
	},
}
