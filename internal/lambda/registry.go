// Package lambda implements the dialect's lambda registry (spec.md
// §4.7): a small, process- or host-scoped table mapping a lambda name
// to a user-supplied transformer.
//
// A lambda is recognized in the JSON tree by the sentinel string value
// "(=>)" under the lambda's name (spec.md §3, GLOSSARY). When the
// render engine encounters that sentinel, it captures the section's
// rendered body into a buffer and invokes the registered Func on it.
package lambda

import (
	"bytes"
	"sync"

	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
)

// Func transforms a lambda section's already-rendered body in place.
// root is the document root (spec.md §9's canonical choice); current
// is the context the lambda section was entered under, exposed as the
// optional second parameter spec.md §9 allows. buf holds the rendered
// body on entry and its mutated contents are appended to the enclosing
// writer on return.
type Func func(root, current jsonval.Value, buf *bytes.Buffer) error

// Registry is a mutex-guarded, upsert-by-name table of lambda
// bindings, held in a map keyed by name.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Func
}

// New returns an empty lambda registry.
func New() *Registry {
	return &Registry{bindings: make(map[string]Func)}
}

// Bind registers fn under name, replacing any existing binding for
// that name (spec.md §4.7: "a second bind for the same name replaces
// the transformer").
func (r *Registry) Bind(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[name] = fn
}

// BindAll registers every entry in fns, replacing any existing binding
// for the same name (same semantics as calling Bind for each entry).
func (r *Registry) BindAll(fns map[string]Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range fns {
		r.bindings[name] = fn
	}
}

// Lookup reports whether a lambda is registered under name, and returns
// it. Distinct from the partial namespace (spec.md §4.7: "lambdas and
// partials use distinct namespaces").
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.bindings[name]
	return fn, ok
}

// Invoke finds the binding for name and calls it against buf; a no-op
// if no binding exists (spec.md §4.7).
func (r *Registry) Invoke(name string, root, current jsonval.Value, buf *bytes.Buffer) error {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return fn(root, current, buf)
}

// Names returns the registered lambda names, for CLI introspection.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for n := range r.bindings {
		names = append(names, n)
	}
	return names
}
