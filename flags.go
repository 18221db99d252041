package mustach

import "github.com/cavalo-mORTO/kore-mustach/internal/render"

// Flags is the public dialect-flag bitmask (spec.md §6). Bit positions
// mirror internal/render.Flags exactly, so no translation happens at
// this boundary either.
type Flags = render.Flags

// Dialect flags, re-exported at the fixed ABI bit positions spec.md §6
// assigns them.
const (
	FlagSingleDot   = render.FlagSingleDot
	FlagEqual       = render.FlagEqual
	FlagCompare     = render.FlagCompare
	FlagJSONPointer = render.FlagJSONPointer
	FlagObjectIter  = render.FlagObjectIter
	FlagIncPartial  = render.FlagIncPartial
	FlagEscFirstCmp = render.FlagEscFirstCmp
	FlagTinyExpr    = render.FlagTinyExpr
)

// FlagsAll enables every dialect flag except FlagTinyExpr, the same
// default the CLI and internal/config ship (spec.md §6).
const FlagsAll = render.FlagsAll
