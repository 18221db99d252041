// Package tagexpr parses a Mustache tag body into a key path, an
// optional comparison operand, and a comparator — the dialect's
// extension over plain dotted-key Mustache tags (spec.md §4.1).
package tagexpr

import (
	"errors"
	"strings"
)

// ErrBadUnescape is returned when a tag body ends with a dangling '\\'
// that has no following byte to consume.
var ErrBadUnescape = errors.New("tagexpr: dangling escape at end of tag")

// Comparator is the relational operator carried by a tag expression.
type Comparator int

const (
	CompNone Comparator = iota
	CompEQ
	CompLT
	CompLE
	CompGT
	CompGE
)

// Flags controls which dialect operators the parser recognizes. The
// bit values match the public ABI fixed by spec.md §6 exactly (they are
// not reassigned 1<<iota-style), so render.Flags values can be passed
// straight through via a numeric conversion without a translation
// table.
type Flags uint32

const (
	FlagEqual       Flags = 8   // '='
	FlagCompare     Flags = 16  // '<' '<=' '>' '>='
	FlagJSONPointer Flags = 32  // '~0' '~1' tilde escapes
	FlagObjectIter  Flags = 64  // '*': bare "*", or a '*' that ends the key ("obj.*")
)

// MaxTagLength bounds the tag body length accepted by Parse, mirroring
// the C implementation's MUSTACH_MAX_LENGTH.
const MaxTagLength = 1024

// Expr is a parsed tag expression.
type Expr struct {
	Key      string // JSON-Pointer-style path ("a/b/c" for "a.b.c")
	Operand  string // comparison/equality operand, without a leading '!'
	Negate   bool   // operand was prefixed with '!'
	HasOper  bool   // an operand was present at all
	Iterate  bool   // bare "*" object-iteration request
	Comp     Comparator
}

// Parse scans a raw tag body into an Expr. Scanning proceeds
// left-to-right, byte by byte, building the key path into a side
// buffer; see spec.md §4.1 for the full per-byte table. The caller
// (render's driver) is responsible for rejecting bodies longer than
// MaxTagLength before calling Parse.
func Parse(raw string, flags Flags) (Expr, error) {
	if raw == "*" && flags&FlagObjectIter != 0 {
		return Expr{Iterate: true, HasOper: true, Operand: "*"}, nil
	}

	var key strings.Builder
	i := 0
	n := len(raw)

	for i < n {
		c := raw[i]
		switch {
		case c == '.':
			key.WriteByte('/')
			i++

		case c == '\\':
			i++
			if i >= n {
				return Expr{}, ErrBadUnescape
			}
			key.WriteByte(raw[i])
			i++

		case c == '~' && flags&FlagJSONPointer != 0:
			i++
			if i < n {
				switch raw[i] {
				case '1':
					key.WriteByte('/')
					i++
				case '0':
					key.WriteByte('~')
					i++
				default:
					key.WriteByte('~')
				}
			} else {
				key.WriteByte('~')
			}

		case c == '*' && flags&FlagObjectIter != 0:
			return Expr{Key: strings.TrimSuffix(key.String(), "/"), Operand: "*", HasOper: true}, nil

		case c == '=' && flags&FlagEqual != 0:
			operand, neg := splitBang(raw[i+1:])
			return Expr{Key: key.String(), Comp: CompEQ, Operand: operand, Negate: neg, HasOper: true}, nil

		case (c == '<' || c == '>') && flags&FlagCompare != 0:
			comp := CompLT
			if c == '>' {
				comp = CompGT
			}
			rest := raw[i+1:]
			if strings.HasPrefix(rest, "=") {
				if comp == CompLT {
					comp = CompLE
				} else {
					comp = CompGE
				}
				rest = rest[1:]
			}
			operand, neg := splitBang(rest)
			return Expr{Key: key.String(), Comp: comp, Operand: operand, Negate: neg, HasOper: true}, nil

		default:
			key.WriteByte(c)
			i++
		}
	}

	return Expr{Key: key.String()}, nil
}

// splitBang splits a leading '!' negation prefix off an operand.
func splitBang(s string) (operand string, negate bool) {
	if strings.HasPrefix(s, "!") {
		return s[1:], true
	}
	return s, false
}
