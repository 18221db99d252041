package render

import (
	"bytes"
	"math"
	"strconv"

	internalexpr "github.com/cavalo-mORTO/kore-mustach/internal/expr"
	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/resolve"
	"github.com/cavalo-mORTO/kore-mustach/internal/tagexpr"
)

// Enter attempts to open a section named by tag (spec.md §4.4.2). A
// nil error with ok == false means the section is omitted, not a
// failure.
func (s *State) Enter(tag string) (ok bool, err error) {
	if !s.current.Valid() {
		return false, nil
	}
	if s.depth+1 >= MaxDepth {
		return false, CodeTooDeep
	}
	s.depth++
	s.stack[s.depth] = stackFrame{savedContext: s.current}

	if tag == "*" && s.flags&FlagObjectIter != 0 {
		if s.current.Kind() == jsonval.KindObject {
			if first, ok := s.current.First(); ok {
				container := s.current
				s.current = first
				s.stack[s.depth].iterate = true
				s.stack[s.depth].container = container
				return true, nil
			}
		}
		s.depth--
		return false, nil
	}

	tx, err := tagexpr.Parse(tag, tagexpr.Flags(s.flags))
	if err != nil {
		s.depth--
		return false, CodeBadUnescape
	}

	item, found := resolve.FindInStack(s.current, s, tx.Key)
	if !found {
		s.depth--
		return false, nil
	}

	switch item.Kind() {
	case jsonval.KindLiteral:
		if !item.Bool() {
			s.depth--
			return false, nil
		}
		return true, nil

	case jsonval.KindArray:
		first, ok := item.First()
		if !ok {
			s.depth--
			return false, nil
		}
		s.current = first
		s.stack[s.depth].iterate = true
		s.stack[s.depth].container = item
		return true, nil

	case jsonval.KindObject:
		if tx.Operand == "*" && s.flags&FlagObjectIter != 0 {
			first, ok := item.First()
			if !ok {
				s.depth--
				return false, nil
			}
			s.current = first
			s.stack[s.depth].iterate = true
			s.stack[s.depth].container = item
			return true, nil
		}
		s.current = item
		return true, nil

	default:
		if item.Kind() == jsonval.KindString && item.String() == lambdaSentinel && s.lambdaRegistered(tx.Key) {
			s.stack[s.depth].lambda = &lambdaSlot{name: tx.Key, capture: &bytes.Buffer{}}
			return true, nil
		}

		enter := scalarEnters(item, tx)
		if !enter {
			s.depth--
			return false, nil
		}
		s.current = item
		return true, nil
	}
}

// scalarEnters decides section membership for a non-container,
// non-lambda item: the comparator result when an operand is present,
// else the truthiness of its self value (spec.md §9 open question).
func scalarEnters(item jsonval.Value, tx tagexpr.Expr) bool {
	if tx.HasOper {
		return resolve.EvalComparator(item, tx.Operand, tx.Comp, tx.Negate)
	}
	return item.Self() != ""
}

// Next advances the iteration cursor of the current section (spec.md
// §4.4.3).
func (s *State) Next() bool {
	frame := &s.stack[s.depth]
	if !frame.iterate {
		return false
	}
	next, ok := jsonval.Next(frame.container, s.current)
	if !ok {
		return false
	}
	s.current = next
	return true
}

// Leave closes the current section (spec.md §4.4.4), flushing any
// lambda capture to the next outer writer.
func (s *State) Leave() error {
	frame := s.stack[s.depth]
	s.current = frame.savedContext
	s.depth--
	if s.depth < 0 {
		return CodeBadClose
	}

	if frame.lambda != nil {
		if err := s.lambdas.Invoke(frame.lambda.name, s.root, frame.savedContext, frame.lambda.capture); err != nil {
			return err
		}
		s.writer().Write(frame.lambda.capture.Bytes())
	}
	return nil
}

// Get renders a non-section tag (spec.md §4.4.5).
func (s *State) Get(tag string) (string, error) {
	if !s.current.Valid() {
		return "", nil
	}
	if tag == "*" && s.flags&FlagObjectIter != 0 {
		return s.current.Name(), nil
	}
	if tag == "." && s.flags&FlagSingleDot != 0 {
		return s.current.Self(), nil
	}

	tx, err := tagexpr.Parse(tag, tagexpr.Flags(s.flags))
	if err != nil {
		return "", CodeBadUnescape
	}

	if item, found := resolve.FindInStack(s.current, s, tx.Key); found {
		if !tx.HasOper || resolve.EvalComparator(item, tx.Operand, tx.Comp, tx.Negate) {
			if item.Kind() == jsonval.KindString && item.String() == lambdaSentinel && s.lambdaRegistered(tx.Key) {
				var buf bytes.Buffer
				if err := s.lambdas.Invoke(tx.Key, s.root, s.current, &buf); err != nil {
					return "", err
				}
				return buf.String(), nil
			}
			return item.Self(), nil
		}
	}

	if s.flags&FlagTinyExpr != 0 {
		v := internalexpr.Eval(tag, s.resolveNumeric)
		if !math.IsNaN(v) {
			return strconv.FormatFloat(v, 'g', 9, 64), nil
		}
	}

	return "", nil
}

// resolveNumeric adapts the JSON stack to internalexpr.Resolver
// (spec.md §4.5 step 2).
func (s *State) resolveNumeric(identifier string) (value float64, numeric bool, ok bool) {
	item, found := resolve.FindInStack(s.current, s, identifier)
	if !found {
		return 0, false, false
	}
	switch item.Kind() {
	case jsonval.KindNumber, jsonval.KindSignedInt, jsonval.KindUnsignedInt:
		return item.Float(), true, true
	default:
		return 0, false, true
	}
}

// Partial resolves a {{>name}} reference (spec.md §4.4.6). The
// returned release func is always non-nil and must be called exactly
// once the returned text has been consumed.
func (s *State) Partial(name string) (text string, release func(), err error) {
	if s.current.Valid() {
		if item, found := resolve.FindInStack(s.current, s, name); found {
			return item.Self(), func() {}, nil
		}
	}
	if s.partials == nil || s.flags&FlagIncPartial == 0 {
		return "", func() {}, nil
	}
	payload, fetchErr := s.partials.Fetch(name)
	if fetchErr != nil {
		return "", func() {}, nil // PARTIAL_NOT_FOUND is not fatal (spec.md §7)
	}
	return string(payload.Bytes), payload.Release, nil
}

// Emit appends bytes to the current writer, escaping first when
// requested (spec.md §4.4.7).
func (s *State) Emit(data []byte, escape bool) {
	if escape {
		s.writer().WriteString(EscapeHTML(string(data)))
		return
	}
	s.writer().Write(data)
}
