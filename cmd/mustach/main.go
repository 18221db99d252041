// Package main is the CLI entry point for mustach — a standalone
// renderer for the kore_mustach dialect: Mustache templates extended
// with typed comparisons, JSON-Pointer tilde escapes, object
// iteration, and lambda sections.
//
// CLI commands (cobra):
//
//	mustach render <template> [data.json]  - render a template once
//	mustach partials bind <path>...        - bind partial directories/files
//	mustach partials list                  - list bound partials
//	mustach lambdas list                   - describe the lambda namespace (the CLI binds none)
//	mustach history tail|query|verify      - inspect the render log
//	mustach config init|show               - manage config.yaml
//	mustach watch <template> <data.json>   - live re-render on file change
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-07-31"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mustach"
	}
	return filepath.Join(home, ".mustach")
}

// configDir is the global flag for the mustach config/state directory.
var configDir string

var rootCmd = &cobra.Command{
	Use:   "mustach",
	Short: "mustach — a kore_mustach dialect renderer",
	Long: `mustach renders Mustache templates extended with typed comparisons,
object iteration, JSON-Pointer tilde escapes, and lambda sections
against a JSON document.

Run 'mustach render <template> [data.json]' for a one-off render, or
'mustach config init' to set up a config.yaml for recurring use.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir,
		"config-dir",
		defaultConfigDir(),
		"Path to mustach config and state directory",
	)

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(partialsCmd)
	rootCmd.AddCommand(lambdasCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
