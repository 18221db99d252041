// Package partial implements the dialect's partial/asset registry
// (spec.md §4.6, §3 "Partial asset"): a directory-backed, reference-
// counted cache of partial template bytes, with mtime-based staleness
// detection and an optional push-based fsnotify watcher (watcher.go).
package partial

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// DefaultMaxFileSize is the historical partial file size cap (spec.md
// §6, §9: "historical... may expose it as configurable").
const DefaultMaxFileSize = 65535

// ErrAssetTooLarge is returned when a bound file exceeds MaxFileSize.
// The original C implementation calls fatal() past this limit; a
// library must not abort its host process, so this is a plain error
// instead (SPEC_FULL.md §13.3).
var ErrAssetTooLarge = errors.New("partial: asset exceeds max file size")

// payload is the refcounted cache entry backing an asset (spec.md §3:
// "Payload = {refs, bytes}").
type payload struct {
	mu   sync.Mutex
	refs int
	data []byte
}

func newPayload(data []byte) *payload {
	return &payload{refs: 1, data: data}
}

// acquire increments refs and returns the current bytes.
func (p *payload) acquire() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs++
	return p.data
}

// release decrements refs, freeing data once it reaches zero.
func (p *payload) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs--
	if p.refs <= 0 {
		p.data = nil
	}
}

// asset is a single registered partial: a path plus its cache state.
type asset struct {
	path    string
	modTime time.Time
	cache   *payload
}

// Payload is a borrowed view over a partial's bytes. Release must be
// called exactly once when the caller is done with Bytes (spec.md §5:
// "Buffers handed out via release hooks... consumer holds one, the
// producer retains a ref and must not free").
type Payload struct {
	Bytes   []byte
	Release func()
}

// Registry is the process- or host-scoped partial cache (spec.md §9's
// design note: prefer an explicit value over a global singleton).
type Registry struct {
	mu          sync.Mutex
	assets      map[string]*asset
	order       []string // preserves bind order for List()
	maxFileSize int64
	statFn      func(string) (os.FileInfo, error)
}

// Option configures a new Registry.
type Option func(*Registry)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(r *Registry) { r.maxFileSize = n }
}

// New returns an empty partial registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		assets:      make(map[string]*asset),
		maxFileSize: DefaultMaxFileSize,
		statFn:      os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BindOptions filters which files Bind registers when walking a
// directory tree, the same compiled-glob-then-match idiom as the
// teacher's rule-path matcher.
type BindOptions struct {
	Include glob.Glob // nil means match everything
	Exclude glob.Glob // nil means exclude nothing
}

// Bind registers paths with the cache. Each entry that names a
// directory is walked recursively; each entry that names a file is
// registered directly. Files already present whose on-disk mtime has
// changed have their cached payload detached (spec.md §3).
func (r *Registry) Bind(paths []string, opts BindOptions) error {
	for _, p := range paths {
		info, err := r.statFn(p)
		if err != nil {
			return fmt.Errorf("partial: stat %s: %w", p, err)
		}
		if info.IsDir() {
			if err := r.bindDir(p, opts); err != nil {
				return err
			}
			continue
		}
		if err := r.bindFile(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) bindDir(root string, opts BindOptions) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("partial: ignoring non-regular file", "path", path)
			return nil
		}
		if opts.Include != nil && !opts.Include.Match(path) {
			return nil
		}
		if opts.Exclude != nil && opts.Exclude.Match(path) {
			return nil
		}
		return r.bindFile(path)
	})
}

func (r *Registry) bindFile(path string) error {
	info, err := r.statFn(path)
	if err != nil {
		return fmt.Errorf("partial: stat %s: %w", path, err)
	}
	if info.Size() > r.maxFileSize {
		slog.Warn("partial: skipping oversized file", "path", path, "size", info.Size(), "max", r.maxFileSize)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.assets[path]
	if !exists {
		a = &asset{path: path}
		r.assets[path] = a
		r.order = append(r.order, path)
	}

	if a.modTime.Equal(info.ModTime()) {
		return nil
	}

	// mtime changed (or this is a first sighting): detach any cached
	// payload so in-flight consumers keep their view, per spec.md §3.
	if a.cache != nil {
		a.cache.release()
		a.cache = nil
	}
	a.modTime = info.ModTime()
	return nil
}

// Fetch locates the asset registered under the exact path name and
// returns a borrowed Payload. A lazy read happens on first fetch, or
// whenever the cache was detached by a staleness refresh.
func (r *Registry) Fetch(name string) (Payload, error) {
	r.mu.Lock()
	a, ok := r.assets[name]
	r.mu.Unlock()
	if !ok {
		return Payload{}, ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a.cache == nil {
		data, err := os.ReadFile(a.path)
		if err != nil {
			return Payload{}, fmt.Errorf("partial: reading %s: %w", a.path, err)
		}
		if int64(len(data)) > r.maxFileSize {
			return Payload{}, ErrAssetTooLarge
		}
		a.cache = newPayload(data)
	}

	data := a.cache.acquire()
	p := a.cache
	return Payload{
		Bytes:   data,
		Release: func() { p.release() },
	}, nil
}

// ErrNotFound is returned by Fetch when no asset is registered under
// the requested name.
var ErrNotFound = errors.New("partial: not found")

// Invalidate forces the next Fetch of name to re-read from disk,
// detaching any held payload the same way a staleness refresh does.
// Used by the fsnotify watcher (watcher.go) on file-change events.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[name]
	if !ok || a.cache == nil {
		return
	}
	a.cache.release()
	a.cache = nil
}

// List returns the registered partial paths in bind order, for CLI
// introspection (`mustach partials list`).
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Close releases every cached payload. Safe to call once at the end of
// a registry's lifetime (spec.md §9's sys_cleanup lifecycle pairing).
//
// On Linux under a sandboxed host, the partial read path needs
// fstat/stat and directory-read syscalls allowed; the original C
// implementation installs its own seccomp filter for this
// (kore_mustach_sys_init). A Go library has no equivalent hook — the
// hosting process owns its own sandbox policy — so this is left as a
// deployment note rather than code.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if a.cache != nil {
			a.cache.release()
			a.cache = nil
		}
	}
	return nil
}
