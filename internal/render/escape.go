package render

import "strings"

// EscapeHTML applies the fixed substitution order from spec.md §4.4.7
// / §6: '&' then '<' then '>' then '"'. Single quote and slash are
// intentionally left alone.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
