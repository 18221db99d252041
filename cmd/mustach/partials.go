package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/cavalo-mORTO/kore-mustach/internal/config"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
)

// partialsCmd is the parent command for partial/asset registry
// operations: binding directories or files into the cache config.yaml
// points at, and listing what's currently bound.
var partialsCmd = &cobra.Command{
	Use:   "partials",
	Short: "Manage the partial/asset registry",
	Long: `Partials are the dialect's {{>name}}-referenced templates or raw
assets, bound from one or more directories or files and cached by path
with mtime-based staleness detection.`,
}

func init() {
	partialsCmd.AddCommand(partialsBindCmd)
	partialsCmd.AddCommand(partialsListCmd)
}

var partialsBindCmd = &cobra.Command{
	Use:   "bind <path>...",
	Short: "Add directories or files to config.yaml's bound partial paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("creating config directory %s: %w", configDir, err)
		}

		path := filepath.Join(configDir, "config.yaml")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Validate every path resolves and compiles before persisting.
		reg := partial.New(partial.WithMaxFileSize(cfg.Partials.MaxFileSize))
		if err := reg.Bind(args, partial.BindOptions{}); err != nil {
			return fmt.Errorf("binding: %w", err)
		}

		cfg.Partials.Paths = append(cfg.Partials.Paths, args...)
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("[mustach] bound %d path(s); %d asset(s) discovered\n", len(args), len(reg.List()))
		return nil
	},
}

var partialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List partials bound from config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if len(cfg.Partials.Paths) == 0 {
			fmt.Println("No partial paths bound. Use 'mustach partials bind <path>...' first.")
			return nil
		}

		opts, err := buildBindOptions(cfg)
		if err != nil {
			return err
		}

		reg := partial.New(partial.WithMaxFileSize(cfg.Partials.MaxFileSize))
		if err := reg.Bind(cfg.Partials.Paths, opts); err != nil {
			return fmt.Errorf("binding: %w", err)
		}

		for _, name := range reg.List() {
			info, err := os.Stat(name)
			if err != nil {
				fmt.Printf("%s\n", name)
				continue
			}
			fmt.Printf("%-40s %8s  %s\n", name, humanize.Bytes(uint64(info.Size())), info.ModTime().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func buildBindOptions(cfg *config.Config) (partial.BindOptions, error) {
	var opts partial.BindOptions
	if cfg.Partials.Include != "" {
		g, err := globCompile(cfg.Partials.Include)
		if err != nil {
			return opts, fmt.Errorf("partials.include: %w", err)
		}
		opts.Include = g
	}
	if cfg.Partials.Exclude != "" {
		g, err := globCompile(cfg.Partials.Exclude)
		if err != nil {
			return opts, fmt.Errorf("partials.exclude: %w", err)
		}
		opts.Exclude = g
	}
	return opts, nil
}

func globCompile(pattern string) (glob.Glob, error) {
	return glob.Compile(pattern)
}
