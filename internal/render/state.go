// Package render implements the render state machine (spec.md §4.4): a
// section-stack-based walker driven by the seven-callback contract
// (start/enter/next/leave/get/partial/emit) that a Mustache driver
// (driver.go, in this package since no off-the-shelf driver exists for
// this callback ABI) invokes while it walks a parsed template.
package render

import (
	"bytes"

	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/lambda"
	"github.com/cavalo-mORTO/kore-mustach/internal/partial"
)

// MaxDepth bounds section nesting (spec.md §6).
const MaxDepth = 256

// lambdaSlot is the live state of an open lambda section: its name (for
// registry lookup at leave) and the buffer currently absorbing emitted
// bytes in place of the enclosing writer.
type lambdaSlot struct {
	name    string
	capture *bytes.Buffer
}

// stackFrame mirrors spec.md §3's section-stack frame. savedContext is
// the context to restore on Leave (the section's parent); container is
// the array or object actually being walked when iterate is set, which
// is not always savedContext — a dotted/compound tag (spec.md §4.1) can
// enter an object nested arbitrarily far below the pre-Enter context.
type stackFrame struct {
	savedContext jsonval.Value
	container    jsonval.Value
	iterate      bool
	lambda       *lambdaSlot
}

// State is a single render's context (spec.md §3 "Render context").
// It is not safe for concurrent use — renders are single-threaded by
// design (spec.md §5).
type State struct {
	root     jsonval.Value
	current  jsonval.Value
	depth    int
	stack    [MaxDepth]stackFrame
	result   bytes.Buffer
	flags    Flags
	partials *partial.Registry
	lambdas  *lambda.Registry
}

// New constructs a render context rooted at root. root must be null
// (the zero jsonval.Value) or an object; anything else is
// CodeInvalidRoot (spec.md §4.4.1). partials and lambdas may be nil,
// in which case partial/lambda lookups behave as if nothing were
// registered.
func New(root jsonval.Value, flags Flags, partials *partial.Registry, lambdas *lambda.Registry) (*State, error) {
	if root.Valid() && root.Kind() != jsonval.KindObject {
		return nil, CodeInvalidRoot
	}
	if flags&FlagCompare != 0 {
		flags |= FlagEqual
	}

	s := &State{
		root:     root,
		current:  root,
		flags:    flags,
		partials: partials,
		lambdas:  lambdas,
	}
	s.stack[0] = stackFrame{savedContext: root}
	s.result.Grow(4096)
	return s, nil
}

// Depth implements resolve.Stack.
func (s *State) Depth() int { return s.depth }

// FrameContext implements resolve.Stack.
func (s *State) FrameContext(d int) jsonval.Value { return s.stack[d].savedContext }

// writer returns the buffer that Emit should append to: the innermost
// open lambda's capture, or the final result buffer (spec.md §4.4.7).
func (s *State) writer() *bytes.Buffer {
	for d := s.depth; d >= 0; d-- {
		if s.stack[d].lambda != nil {
			return s.stack[d].lambda.capture
		}
	}
	return &s.result
}

// Result returns the accumulated output. Valid only once rendering has
// finished without a fatal error.
func (s *State) Result() []byte {
	return s.result.Bytes()
}

// lambdaRegistered reports whether name has a bound transformer.
func (s *State) lambdaRegistered(name string) bool {
	if s.lambdas == nil {
		return false
	}
	_, ok := s.lambdas.Lookup(name)
	return ok
}

// lambdaSentinel marks a JSON string value as a lambda reference
// (spec.md §6 "Lambda marker").
const lambdaSentinel = "(=>)"
