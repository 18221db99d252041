// Package resolve implements the dialect's JSON key resolver and typed
// comparator (spec.md §4.2, §4.3): given a section stack of JSON
// contexts, resolve a dotted/JSON-Pointer key path to the closest
// matching item, then optionally compare it against a string operand.
package resolve

import (
	"strconv"
	"strings"

	"github.com/cavalo-mORTO/kore-mustach/internal/jsonval"
	"github.com/cavalo-mORTO/kore-mustach/internal/tagexpr"
)

// Stack is the ordered sequence of section-frame contexts a render is
// currently nested under, root first. FindInStack walks it top-down
// after failing against the current context.
type Stack interface {
	// Depth returns the current stack depth (root is frame 0).
	Depth() int
	// FrameContext returns the saved context for stack frame d.
	FrameContext(d int) jsonval.Value
}

// FindHere locates a direct child of context named by a JSON-Pointer
// style path such as "a/b/c" (dots already translated to '/' by the
// tag parser), navigating one path segment at a time.
func FindHere(context jsonval.Value, path string) (jsonval.Value, bool) {
	if path == "" {
		return jsonval.Value{}, false
	}
	cur := context
	for _, seg := range strings.Split(path, "/") {
		next, ok := cur.FindHere(seg)
		if !ok {
			return jsonval.Value{}, false
		}
		cur = next
	}
	return cur, true
}

// FindInStack resolves name against the current context first; on
// miss, walks the stack from the current depth down to the root,
// retrying FindHere against each frame's saved context, per spec.md
// §4.2. The root frame (depth 0) is always included.
func FindInStack(current jsonval.Value, stack Stack, name string) (jsonval.Value, bool) {
	if item, ok := FindHere(current, name); ok {
		return item, true
	}
	for d := stack.Depth(); d >= 0; d-- {
		if item, ok := FindHere(stack.FrameContext(d), name); ok {
			return item, true
		}
	}
	return jsonval.Value{}, false
}

// Compare orders item against a string operand, typed by item's kind.
// Returns 0 whenever the operand doesn't parse as item's type or item's
// kind is not comparable, matching spec.md §4.3.
func Compare(item jsonval.Value, operand string) int {
	switch item.Kind() {
	case jsonval.KindNumber:
		d, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return 0
		}
		return sign(item.Float() - d)

	case jsonval.KindSignedInt:
		i, err := strconv.ParseInt(operand, 10, 64)
		if err != nil {
			return 0
		}
		cur, _ := strconv.ParseInt(item.Self(), 10, 64)
		return signInt64(cur - i)

	case jsonval.KindUnsignedInt:
		u, err := strconv.ParseUint(operand, 10, 64)
		if err != nil {
			return 0
		}
		cur, _ := strconv.ParseUint(item.Self(), 10, 64)
		if cur == u {
			return 0
		}
		if cur > u {
			return 1
		}
		return -1

	case jsonval.KindString:
		return strings.Compare(item.String(), operand)

	default:
		return 0
	}
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func signInt64(i int64) int {
	switch {
	case i > 0:
		return 1
	case i < 0:
		return -1
	default:
		return 0
	}
}

// EvalComparator applies comp to sign(Compare(item, operand)), then
// inverts the result if negate is set (an operand prefixed with '!').
func EvalComparator(item jsonval.Value, operand string, comp tagexpr.Comparator, negate bool) bool {
	c := Compare(item, operand)
	var result bool
	switch comp {
	case tagexpr.CompEQ:
		result = c == 0
	case tagexpr.CompLT:
		result = c < 0
	case tagexpr.CompLE:
		result = c <= 0
	case tagexpr.CompGT:
		result = c > 0
	case tagexpr.CompGE:
		result = c >= 0
	default:
		result = false
	}
	if negate {
		return !result
	}
	return result
}
