// Package jsonval implements the JSON value tree consumed by the render
// engine: an immutable, order-preserving view over a parsed JSON document.
//
// Plain Go JSON decoding into map[string]any loses object key order, which
// the resolver and the object-iteration operator both depend on. Value
// wraps github.com/tidwall/gjson instead, whose ForEach walks children in
// the order they appear in the source text.
package jsonval

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies a Value the way the dialect's comparator and
// self_value serialization need: JSON itself only has one numeric type,
// but the source format this engine emulates (kore_json) distinguishes
// floats, signed integers, and unsigned integers, and the dialect's
// typed comparator keys off that distinction.
type Kind int

const (
	KindNull Kind = iota
	KindLiteral
	KindString
	KindNumber
	KindSignedInt
	KindUnsignedInt
	KindObject
	KindArray
)

// Value is a node in the JSON value tree. The zero Value is the null
// item (Kind() == KindNull).
type Value struct {
	name string // the child's key within its parent object, "" if none (array element or root)
	res  gjson.Result
	ok   bool
}

// Parse parses raw JSON text into a root Value. A root value must be
// null-shaped (empty input) or an object, matching spec.md's
// INVALID_ROOT requirement; callers enforce that, not Parse itself.
func Parse(data []byte) (Value, bool) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Value{}, true
	}
	if !gjson.ValidBytes(data) {
		return Value{}, false
	}
	res := gjson.ParseBytes(data)
	if !res.Exists() {
		return Value{}, false
	}
	return Value{res: res, ok: true}, true
}

// Name returns the key this value was found under in its parent object,
// or "" if it has none (array element, or the root).
func (v Value) Name() string { return v.name }

// Valid reports whether v refers to an actual JSON item (as opposed to
// a failed lookup).
func (v Value) Valid() bool { return v.ok }

// Kind classifies v per the taxonomy above.
func (v Value) Kind() Kind {
	if !v.ok {
		return KindNull
	}
	switch v.res.Type {
	case gjson.String:
		return KindString
	case gjson.True, gjson.False, gjson.Null:
		return KindLiteral
	case gjson.Number:
		return classifyNumber(v.res.Raw)
	case gjson.JSON:
		if strings.HasPrefix(strings.TrimSpace(v.res.Raw), "[") {
			return KindArray
		}
		return KindObject
	default:
		return KindNull
	}
}

// classifyNumber decides whether a JSON number literal should be
// treated as a float, a signed 64-bit integer, or an unsigned 64-bit
// integer, mirroring kore_json's own rule: a literal with no '.' or
// exponent and no leading '-' that overflows int64 is unsigned; one
// that fits int64 is signed; anything else is a float.
func classifyNumber(raw string) Kind {
	if strings.ContainsAny(raw, ".eE") {
		return KindNumber
	}
	if strings.HasPrefix(raw, "-") {
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return KindSignedInt
		}
		return KindNumber
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return KindSignedInt
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return KindUnsignedInt
	}
	return KindNumber
}

// Bool reports the literal's truth value (KindLiteral only).
func (v Value) Bool() bool { return v.ok && v.res.Type == gjson.True }

// String returns the string's raw bytes (KindString only).
func (v Value) String() string {
	if !v.ok {
		return ""
	}
	return v.res.Str
}

// Float returns the numeric value as a float64, for any numeric Kind.
func (v Value) Float() float64 {
	if !v.ok {
		return 0
	}
	return v.res.Num
}

// FindHere locates a direct child of v named name. Type-agnostic: it
// returns the first matching child regardless of its value type. Fails
// when v is not an object.
func (v Value) FindHere(name string) (Value, bool) {
	if !v.ok || v.Kind() != KindObject {
		return Value{}, false
	}
	var found gjson.Result
	var hit bool
	v.res.ForEach(func(key, val gjson.Result) bool {
		if key.Str == name {
			found, hit = val, true
			return false
		}
		return true
	})
	if !hit {
		return Value{}, false
	}
	return Value{name: name, res: found, ok: true}, true
}

// Children iterates v's direct children in source order: object values
// (each paired with its key, via FindHere's naming convention) or array
// elements. fn returning false stops iteration early.
func (v Value) Children(fn func(child Value) bool) {
	if !v.ok {
		return
	}
	switch v.Kind() {
	case KindObject:
		v.res.ForEach(func(key, val gjson.Result) bool {
			return fn(Value{name: key.Str, res: val, ok: true})
		})
	case KindArray:
		v.res.ForEach(func(_, val gjson.Result) bool {
			return fn(Value{res: val, ok: true})
		})
	}
}

// First returns v's first child, for entering a section.
func (v Value) First() (Value, bool) {
	var first Value
	var got bool
	v.Children(func(child Value) bool {
		first, got = child, true
		return false
	})
	return first, got
}

// Len reports the number of direct children (0 for scalars).
func (v Value) Len() int {
	n := 0
	v.Children(func(Value) bool { n++; return true })
	return n
}

// sibling describes an item's position among its parent's children.
// gjson doesn't expose a cursor, so Next (below) re-walks the parent's
// children and returns the one after the child matching v by name, byte
// offset and Raw text — adequate since a render's context never mutates
// the tree.
type sibling struct {
	parentObj bool
	idx       int
	items     []Value
}

// Next returns the sibling following v within parent's ordered children,
// or false if v is the last (or not found, or parent isn't a container).
func Next(parent Value, v Value) (Value, bool) {
	var items []Value
	parent.Children(func(child Value) bool {
		items = append(items, child)
		return true
	})
	for i, it := range items {
		if sameItem(it, v) {
			if i+1 < len(items) {
				return items[i+1], true
			}
			return Value{}, false
		}
	}
	return Value{}, false
}

func sameItem(a, b Value) bool {
	return a.name == b.name && a.res.Index == b.res.Index && a.res.Raw == b.res.Raw
}

// Self renders v as Mustache would a bare variable reference: lossless
// text for scalars, canonical (unnamed) JSON for containers.
func (v Value) Self() string {
	if !v.ok {
		return ""
	}
	switch v.Kind() {
	case KindString:
		return v.res.Str
	case KindNumber:
		return strconv.FormatFloat(v.res.Num, 'g', -1, 64)
	case KindSignedInt:
		n, _ := strconv.ParseInt(v.res.Raw, 10, 64)
		return strconv.FormatInt(n, 10)
	case KindUnsignedInt:
		n, _ := strconv.ParseUint(v.res.Raw, 10, 64)
		return strconv.FormatUint(n, 10)
	case KindLiteral:
		switch v.res.Type {
		case gjson.True:
			return "true"
		case gjson.False:
			return "false"
		default:
			return "null"
		}
	case KindObject, KindArray:
		return v.res.Raw
	default:
		return ""
	}
}
