// Package expr implements the TINY_EXPR arithmetic sub-expression
// evaluator (spec.md §4.5): a constrained arithmetic expression over
// identifiers resolved against the current render's JSON stack.
package expr

import (
	"math"
	"strings"

	"github.com/expr-lang/expr"
)

// delimiters are the characters that separate identifier atoms within
// an arithmetic expression (spec.md §4.5 step 1), mirroring the
// original C implementation's split_string_pbrk accept set.
const delimiters = "+-*/^%(), \t\n\r"

// Identifiers enumerates the unique candidate identifier substrings in
// expression, in first-seen order.
func Identifiers(expression string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.FieldsFunc(expression, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	}) {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Resolver resolves a single identifier to a numeric value. ok is false
// when the identifier doesn't resolve against the JSON stack at all;
// numeric is false when it resolves to a non-numeric JSON item (in
// which case the symbol is still bound, to NaN, matching spec.md §4.5
// step 2: "non-numeric types yield NaN for that slot").
type Resolver func(identifier string) (value float64, numeric bool, ok bool)

// Eval compiles and evaluates expression against a symbol table built
// by calling resolve for every identifier the expression references.
// Returns NaN on any resolution, compile, or evaluation error (spec.md
// §4.5 step 4).
func Eval(expression string, resolve Resolver) float64 {
	env := make(map[string]float64)
	for _, id := range Identifiers(expression) {
		value, numeric, ok := resolve(id)
		if !ok {
			continue
		}
		if !numeric {
			env[id] = math.NaN()
			continue
		}
		env[id] = value
	}

	program, err := expr.Compile(rewrite(expression), expr.Env(env))
	if err != nil {
		return math.NaN()
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return math.NaN()
	}

	switch v := out.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return math.NaN()
	}
}

// rewrite adapts the dialect's tinyexpr-flavored syntax to expr-lang's:
// '^' is right-associative power in the dialect (spec.md §4.5 step 3)
// but bitwise-xor in expr-lang, which instead spells power as '**'.
func rewrite(expression string) string {
	return strings.ReplaceAll(expression, "^", "**")
}
