package renderlog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// computeHash derives an entry's hash from its predecessor's hash plus
// its own fields, the same SHA-256(prev|seq|ts|...) chain formula the
// teacher's audit trail uses, adapted to the render invocation fields.
func computeHash(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%d|%d|%d|%d|%d",
		e.PrevHash, e.Seq, e.Timestamp, e.TemplateID,
		e.Flags, e.DataBytes, e.OutputBytes, e.Code, e.LatencyUs)
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// verifyEntry reports whether an entry's stored hash matches its
// recomputed hash.
func verifyEntry(e *Entry) bool {
	return e.Hash == computeHash(e)
}
