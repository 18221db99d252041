// Package config loads, validates, and writes the CLI host's
// config.yaml: which partial directories to bind, which dialect flags
// to enable by default, and whether the render log is turned on.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cavalo-mORTO/kore-mustach/internal/render"
)

// Config is the top-level host configuration, loaded from
// <config-dir>/config.yaml.
type Config struct {
	Partials  PartialsConfig  `yaml:"partials"`
	Render    RenderConfig    `yaml:"render"`
	RenderLog RenderLogConfig `yaml:"renderlog"`
}

// PartialsConfig controls how the partial registry is bound at
// startup (spec.md §4.6).
type PartialsConfig struct {
	Paths       []string `yaml:"paths"`
	Include     string   `yaml:"include"` // glob; "" matches everything
	Exclude     string   `yaml:"exclude"` // glob; "" excludes nothing
	Watch       bool     `yaml:"watch"`
	MaxFileSize int64    `yaml:"maxFileSize"`
}

// RenderConfig lists the dialect flag names a render enables by
// default, overridable per-invocation by the CLI's --flags.
type RenderConfig struct {
	Flags []string `yaml:"flags"`
}

// RenderLogConfig controls the hash-chained render invocation log.
type RenderLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// flagNames maps config/CLI flag names to their ABI bit (spec.md §6).
var flagNames = map[string]render.Flags{
	"single_dot":    render.FlagSingleDot,
	"equal":         render.FlagEqual,
	"compare":       render.FlagCompare,
	"json_pointer":  render.FlagJSONPointer,
	"object_iter":   render.FlagObjectIter,
	"inc_partial":   render.FlagIncPartial,
	"esc_first_cmp": render.FlagEscFirstCmp,
	"tiny_expr":     render.FlagTinyExpr,
	"all":           render.FlagsAll,
}

// ResolveFlags translates RenderConfig.Flags into a render.Flags
// bitmask, rejecting unrecognized names.
func (r RenderConfig) ResolveFlags() (render.Flags, error) {
	var flags render.Flags
	for _, name := range r.Flags {
		bit, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("config: unknown render flag %q", name)
		}
		flags |= bit
	}
	return flags, nil
}

// Load reads and parses config.yaml at path. A missing file yields
// defaults rather than an error, matching first-run behavior.
func Load(path string) (*Config, error) {
	cfg := applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes a fully-populated default config.yaml, used by
// first-run setup and `mustach config init`.
func WriteDefault(path string) error {
	return Save(path, applyDefaults())
}

// Save validates and writes cfg to path, preserving the commented
// header WriteDefault uses. Callers that mutate a loaded Config (e.g.
// `mustach partials bind`, appending to Partials.Paths) use this to
// persist the change rather than overwriting it with fresh defaults.
func Save(path string, cfg *Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config: invalid config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling config: %w", err)
	}

	header := `# kore-mustach host configuration
#
# partials:
#   paths: directories or files to bind into the partial registry
#   include/exclude: glob filters applied when walking a directory
#   watch: stored in the config; no mustach command reads it
#   maxFileSize: bytes; files larger than this are skipped
#
# render:
#   flags: dialect flags enabled by default (same names as --flags)
#
# renderlog:
#   enabled: record every render invocation to a hash-chained log
#   dir: where the log and its SQLite index live

`
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

func applyDefaults() *Config {
	return &Config{
		Partials: PartialsConfig{
			MaxFileSize: 65535,
		},
		Render: RenderConfig{
			Flags: []string{"all"},
		},
		RenderLog: RenderLogConfig{
			Enabled: false,
			Dir:     "renderlog",
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Partials.MaxFileSize < 0 {
		return fmt.Errorf("partials.maxFileSize must be non-negative")
	}
	if _, err := cfg.Render.ResolveFlags(); err != nil {
		return err
	}
	if cfg.RenderLog.Enabled && cfg.RenderLog.Dir == "" {
		return fmt.Errorf("renderlog.dir must be set when renderlog.enabled is true")
	}
	return nil
}
