package mustach

import "github.com/cavalo-mORTO/kore-mustach/internal/render"

// Code is the public render failure code, the fixed negative-integer
// ABI from spec.md §6. A nil error means success; a non-nil error
// returned by Render or RenderValue is a Code, except that an error
// returned by a bound lambda is passed through unchanged.
type Code = render.Code

// Failure codes, re-exported at their fixed ABI values.
const (
	CodeSystem          = render.CodeSystem
	CodeUnexpectedEnd   = render.CodeUnexpectedEnd
	CodeEmptyTag        = render.CodeEmptyTag
	CodeTagTooLong      = render.CodeTagTooLong
	CodeBadSeparators   = render.CodeBadSeparators
	CodeTooDeep         = render.CodeTooDeep
	CodeBadClose        = render.CodeBadClose
	CodeBadUnescape     = render.CodeBadUnescape
	CodeInvalidRoot     = render.CodeInvalidRoot
	CodeItemNotFound    = render.CodeItemNotFound
	CodePartialNotFound = render.CodePartialNotFound
)

// Strerror returns the fixed textual message for a Code (spec.md
// §4.4.8), the same table errno()-style callers expect.
func Strerror(c Code) string {
	return render.Strerror(c)
}
