package renderlog

import (
	"strings"
	"testing"
)

func TestComputeHash_Deterministic(t *testing.T) {
	e := &Entry{
		Seq:        1,
		Timestamp:  "2026-02-12T10:00:00Z",
		TemplateID: "welcome.mustache",
		Flags:      511,
		Code:       0,
		PrevHash:   "sha256:genesis",
	}

	hash1 := computeHash(e)
	hash2 := computeHash(e)

	if hash1 != hash2 {
		t.Error("same input should produce the same hash")
	}
	if !strings.HasPrefix(hash1, "sha256:") {
		t.Errorf("hash should start with 'sha256:', got %q", hash1)
	}
}

func TestComputeHash_DifferentEntries(t *testing.T) {
	e1 := &Entry{Seq: 1, TemplateID: "a", PrevHash: "sha256:genesis"}
	e2 := &Entry{Seq: 2, TemplateID: "a", PrevHash: "sha256:genesis"}

	if computeHash(e1) == computeHash(e2) {
		t.Error("different seq should produce different hashes")
	}
}

func TestComputeHash_SensitiveToAllFields(t *testing.T) {
	base := Entry{
		Seq:         1,
		Timestamp:   "2026-02-12T10:00:00Z",
		TemplateID:  "welcome.mustache",
		Flags:       511,
		DataBytes:   10,
		OutputBytes: 20,
		Code:        0,
		LatencyUs:   150,
		PrevHash:    "sha256:abc",
	}
	baseHash := computeHash(&base)

	tests := []struct {
		name   string
		modify func(e *Entry)
	}{
		{"seq", func(e *Entry) { e.Seq = 99 }},
		{"timestamp", func(e *Entry) { e.Timestamp = "2026-12-31T00:00:00Z" }},
		{"template_id", func(e *Entry) { e.TemplateID = "other.mustache" }},
		{"flags", func(e *Entry) { e.Flags = 1 }},
		{"data_bytes", func(e *Entry) { e.DataBytes = 999 }},
		{"output_bytes", func(e *Entry) { e.OutputBytes = 999 }},
		{"code", func(e *Entry) { e.Code = -1 }},
		{"latency_us", func(e *Entry) { e.LatencyUs = 999 }},
		{"prev_hash", func(e *Entry) { e.PrevHash = "sha256:xyz" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modified := base
			tt.modify(&modified)
			if computeHash(&modified) == baseHash {
				t.Errorf("changing %s should produce a different hash", tt.name)
			}
		})
	}
}

func TestVerifyEntry_Valid(t *testing.T) {
	e := &Entry{Seq: 0, TemplateID: "genesis", PrevHash: "sha256:genesis"}
	e.Hash = computeHash(e)

	if !verifyEntry(e) {
		t.Error("entry with correct hash should verify as true")
	}
}

func TestVerifyEntry_TamperedHash(t *testing.T) {
	e := &Entry{Seq: 1, TemplateID: "a", PrevHash: "sha256:genesis"}
	e.Hash = "sha256:tampered"

	if verifyEntry(e) {
		t.Error("entry with tampered hash should verify as false")
	}
}

func TestVerifyEntry_TamperedField(t *testing.T) {
	e := &Entry{Seq: 1, TemplateID: "a", PrevHash: "sha256:genesis"}
	e.Hash = computeHash(e)

	e.Code = -11

	if verifyEntry(e) {
		t.Error("entry with tampered field should verify as false")
	}
}

func TestHashChain_Integrity(t *testing.T) {
	genesis := "sha256:genesis"

	e1 := &Entry{Seq: 0, Timestamp: "t0", TemplateID: "genesis", PrevHash: genesis}
	e1.Hash = computeHash(e1)

	e2 := &Entry{Seq: 1, Timestamp: "t1", TemplateID: "a.mustache", Code: 0, PrevHash: e1.Hash}
	e2.Hash = computeHash(e2)

	e3 := &Entry{Seq: 2, Timestamp: "t2", TemplateID: "b.mustache", Code: -3, PrevHash: e2.Hash}
	e3.Hash = computeHash(e3)

	if !verifyEntry(e1) || !verifyEntry(e2) || !verifyEntry(e3) {
		t.Fatal("all three entries should verify before tampering")
	}

	e2.TemplateID = "tampered.mustache"
	if verifyEntry(e2) {
		t.Error("tampered e2 should not verify")
	}
}
