// Package mustach is the public API of the dialect engine: parsing and
// rendering a template against a JSON document, plus the partial and
// lambda registries a host binds before rendering (spec.md §1, §9).
package mustach

import (
	"sync"

	"github.com/cavalo-mORTO/kore-mustach/internal/lambda"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
)

// Registry bundles the partial cache and the lambda table a host binds
// once and reuses across renders (spec.md §9's design note: prefer an
// explicit value passed to Render over a hidden process-wide global).
type Registry struct {
	Partials *partial.Registry
	Lambdas  *lambda.Registry
}

// NewRegistry returns an empty, ready-to-bind Registry.
func NewRegistry(opts ...partial.Option) *Registry {
	return &Registry{
		Partials: partial.New(opts...),
		Lambdas:  lambda.New(),
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns a process-wide Registry, created on first use. Most
// hosts should construct their own Registry with NewRegistry instead;
// Default exists for callers that genuinely want global convenience
// (spec.md §9 allows either).
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}
