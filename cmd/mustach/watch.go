package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	mustach "github.com/cavalo-mORTO/kore-mustach"
	"github.com/cavalo-mORTO/kore-mustach/internal/config"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
)

// watchCmd re-renders a template whenever it or its data file changes,
// printing the result to stdout on each pass — the same
// fsnotify-goroutine-plus-signal-context shutdown shape `ctrlai start`
// uses for its proxy server, retargeted at a render loop instead of an
// HTTP listener. Bound partials are not watched: they are bound once at
// startup, and a change to a partial file neither triggers a re-render
// nor refreshes its cached bytes.
var watchCmd = &cobra.Command{
	Use:   "watch <template> <data.json>",
	Short: "Re-render on template or data changes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0], args[1])
	},
}

func runWatch(templatePath, dataPath string) error {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	flags, err := cfg.Render.ResolveFlags()
	if err != nil {
		return err
	}

	reg := mustach.NewRegistry(partial.WithMaxFileSize(cfg.Partials.MaxFileSize))
	if len(cfg.Partials.Paths) > 0 {
		if err := bindConfiguredPartials(reg, cfg); err != nil {
			return err
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()
	for _, p := range []string{templatePath, dataPath} {
		if err := fw.Add(filepath.Dir(p)); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderOnce := func() {
		templateBytes, err := os.ReadFile(templatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mustach: reading template: %v\n", err)
			return
		}
		data, err := os.ReadFile(dataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mustach: reading data: %v\n", err)
			return
		}
		out, err := mustach.Render(string(templateBytes), data, flags, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mustach: render failed: %v\n", err)
			return
		}
		fmt.Println("--- render ---")
		os.Stdout.Write(out)
		fmt.Println()
	}

	renderOnce()
	fmt.Println("[mustach] watching for changes, Ctrl+C to stop")

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(templatePath) &&
				filepath.Clean(event.Name) != filepath.Clean(dataPath) {
				continue
			}
			renderOnce()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "mustach: watcher error: %v\n", err)

		case <-ctx.Done():
			fmt.Println("\n[mustach] shutting down (signal received)")
			return nil
		}
	}
}
