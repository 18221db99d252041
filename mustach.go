package mustach

import (
	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/lambda"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
	"github.com/cavalo-mORTO/kore-mustach/internal/render"
)

// Render expands template against the JSON document in data, using reg
// for partial and lambda lookups (reg may be nil, meaning no partials
// or lambdas are available). For repeated renders of the same template
// text, prefer Parse followed by Template.Render, which tokenizes once
// (spec.md §4.8's parse-once-render-many split).
func Render(template string, data []byte, flags Flags, reg *Registry) ([]byte, error) {
	tmpl, err := Parse(template)
	if err != nil {
		return nil, err
	}
	return tmpl.Render(data, flags, reg)
}

// RenderValue is Render against an already-parsed jsonval.Value, for
// callers that parsed their document once to render it against several
// templates, or that built the value tree themselves.
func RenderValue(template string, root jsonval.Value, flags Flags, reg *Registry) ([]byte, error) {
	tmpl, err := Parse(template)
	if err != nil {
		return nil, err
	}
	return tmpl.RenderValue(root, flags, reg)
}

// Template is a tokenized template, ready for repeated rendering
// against independent data.
type Template struct {
	nodes []render.Node
}

// Parse tokenizes template text once. The result can be rendered many
// times with Render/RenderValue without re-parsing.
func Parse(template string) (*Template, error) {
	nodes, err := render.Parse(template)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes}, nil
}

// Render expands t against the JSON document in data.
func (t *Template) Render(data []byte, flags Flags, reg *Registry) ([]byte, error) {
	root, ok := jsonval.Parse(data)
	if !ok {
		return nil, CodeInvalidRoot
	}
	return t.RenderValue(root, flags, reg)
}

// RenderValue expands t against an already-parsed root value.
func (t *Template) RenderValue(root jsonval.Value, flags Flags, reg *Registry) ([]byte, error) {
	pr, lr := registryParts(reg)

	s, err := render.New(root, flags, pr, lr)
	if err != nil {
		return nil, err
	}
	if err := render.Eval(t.nodes, s); err != nil {
		return nil, err
	}
	return s.Result(), nil
}

// registryParts unpacks reg into its two components, tolerating a nil
// Registry or nil fields within one (a render with no partials or no
// lambdas bound is legitimate, not an error).
func registryParts(reg *Registry) (*partial.Registry, *lambda.Registry) {
	if reg == nil {
		return nil, nil
	}
	return reg.Partials, reg.Lambdas
}
