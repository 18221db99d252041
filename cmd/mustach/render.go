package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	mustach "github.com/cavalo-mORTO/kore-mustach"
	"github.com/cavalo-mORTO/kore-mustach/internal/config"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
	"github.com/cavalo-mORTO/kore-mustach/internal/renderlog"
)

var renderFlagNames []string

// renderCmd renders a single template against a JSON document and
// writes the result to stdout. Config-bound partial directories and
// default flags are loaded from <config-dir>/config.yaml when present;
// --flags on the command line overrides the config's default list.
var renderCmd = &cobra.Command{
	Use:   "render <template> [data.json]",
	Short: "Render a template against a JSON document",
	Long: `Render expands a Mustache template (extended with the kore_mustach
dialect: typed comparisons, object iteration, JSON-Pointer escapes, and
lambda sections) against a JSON document and writes the result to stdout.

If data.json is omitted, an empty JSON object is used as the root.

Examples:
  mustach render welcome.mustache data.json
  mustach render welcome.mustache data.json --flags equal,compare`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(args)
	},
}

func init() {
	renderCmd.Flags().StringSliceVar(&renderFlagNames, "flags", nil,
		"Dialect flags to enable (comma-separated: single_dot,equal,compare,json_pointer,object_iter,inc_partial,tiny_expr,all). Overrides config.yaml.")
}

func runRender(args []string) error {
	templatePath := args[0]

	templateBytes, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", templatePath, err)
	}

	data := []byte("{}")
	if len(args) > 1 {
		data, err = os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading data %s: %w", args[1], err)
		}
	}

	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags, err := resolveRenderFlags(cfg)
	if err != nil {
		return err
	}

	reg := mustach.NewRegistry(partial.WithMaxFileSize(cfg.Partials.MaxFileSize))
	if len(cfg.Partials.Paths) > 0 {
		if err := bindConfiguredPartials(reg, cfg); err != nil {
			return err
		}
	}
	start := time.Now()
	out, renderErr := mustach.Render(string(templateBytes), data, flags, reg)
	elapsed := time.Since(start)

	code := 0
	if renderErr != nil {
		if c, ok := renderErr.(mustach.Code); ok {
			code = int(c)
		} else {
			code = int(mustach.CodeSystem)
		}
	}

	if cfg.RenderLog.Enabled {
		logRenderInvocation(cfg, templatePath, uint32(flags), len(data), len(out), code, elapsed)
	}

	if renderErr != nil {
		return fmt.Errorf("render failed: %w", renderErr)
	}

	_, err = os.Stdout.Write(out)
	return err
}

func resolveRenderFlags(cfg *config.Config) (mustach.Flags, error) {
	if len(renderFlagNames) > 0 {
		rc := config.RenderConfig{Flags: renderFlagNames}
		return rc.ResolveFlags()
	}
	return cfg.Render.ResolveFlags()
}

func bindConfiguredPartials(reg *mustach.Registry, cfg *config.Config) error {
	var opts partial.BindOptions
	if cfg.Partials.Include != "" {
		g, err := globCompile(cfg.Partials.Include)
		if err != nil {
			return fmt.Errorf("partials.include: %w", err)
		}
		opts.Include = g
	}
	if cfg.Partials.Exclude != "" {
		g, err := globCompile(cfg.Partials.Exclude)
		if err != nil {
			return fmt.Errorf("partials.exclude: %w", err)
		}
		opts.Exclude = g
	}
	return reg.Partials.Bind(cfg.Partials.Paths, opts)
}

func logRenderInvocation(cfg *config.Config, templateID string, flags uint32, dataBytes, outputBytes, code int, elapsed time.Duration) {
	dir := cfg.RenderLog.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(configDir, dir)
	}
	rl, err := renderlog.New(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mustach: render log unavailable: %v\n", err)
		return
	}
	defer rl.Close()
	rl.Record(templateID, flags, dataBytes, outputBytes, code, elapsed.Microseconds())
}
