package render

// Code is a render failure, identified by the fixed negative-integer ABI
// in spec.md §6. The zero value is not a valid Code; successful calls
// return a nil error instead.
type Code int

const (
	CodeSystem          Code = -1
	CodeUnexpectedEnd   Code = -2
	CodeEmptyTag        Code = -3
	CodeTagTooLong      Code = -4
	CodeBadSeparators   Code = -5
	CodeTooDeep         Code = -6
	CodeBadClose        Code = -7
	CodeBadUnescape     Code = -8
	CodeInvalidRoot     Code = -9
	CodeItemNotFound    Code = -10
	CodePartialNotFound Code = -11
)

var strerrorTable = map[Code]string{
	CodeSystem:          "system error",
	CodeUnexpectedEnd:   "unexpected end of template",
	CodeEmptyTag:        "empty tag",
	CodeTagTooLong:      "tag too long",
	CodeBadSeparators:   "bad separators",
	CodeTooDeep:         "too deep",
	CodeBadClose:        "bad close",
	CodeBadUnescape:     "bad unescape",
	CodeInvalidRoot:     "invalid root",
	CodeItemNotFound:    "item not found",
	CodePartialNotFound: "partial not found",
}

// Error satisfies the error interface, so a Code can be returned and
// compared directly (errors.Is(err, render.CodeTooDeep)).
func (c Code) Error() string {
	if msg, ok := strerrorTable[c]; ok {
		return msg
	}
	return "unknown error"
}

// Strerror is the textual mapping fixed by spec.md §4.4.8/§6, keyed by
// the same Code values errno() would expose.
func Strerror(c Code) string {
	return c.Error()
}
