// Package renderlog implements the optional render invocation log: a
// tamper-evident, hash-chained append-only JSONL trail of every render
// call a host makes, with a SQLite projection for fast queries
// (index.go). Not part of spec.md's core — it is the host-level
// observability layer a production rendering service would carry
// alongside it, adapted from the teacher's audit trail.
package renderlog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a single render invocation record.
type Entry struct {
	Seq         uint64 `json:"seq"`
	ID          string `json:"id"`
	Timestamp   string `json:"ts"`
	TemplateID  string `json:"template_id,omitempty"`
	Flags       uint32 `json:"flags"`
	DataBytes   int    `json:"data_bytes"`
	OutputBytes int    `json:"output_bytes"`
	Code        int    `json:"code"` // render.Code; 0 is success
	LatencyUs   int64  `json:"latency_us"`
	PrevHash    string `json:"prev_hash"`
	Hash        string `json:"hash"`
}

// QueryParams filters a Query call; zero values mean "no filter".
type QueryParams struct {
	TemplateID string
	FailedOnly bool
	Since      string // RFC3339Nano timestamp or a Go duration string
	Limit      int
}

// VerifyResult is the outcome of VerifyChain.
type VerifyResult struct {
	Valid          bool   `json:"valid"`
	EntriesChecked int    `json:"entries_checked"`
	BrokenAt       int    `json:"broken_at,omitempty"`
	ExpectedHash   string `json:"expected_hash,omitempty"`
	ActualHash     string `json:"actual_hash,omitempty"`
}

// Log manages the hash-chained render invocation log.
//
// Storage layout:
//
//	<dir>/
//	├── genesis.json      # establishes the chain
//	├── 2026-07-31.jsonl   # today's entries (append-only)
//	└── index.db           # SQLite projection for fast queries
type Log struct {
	mu       sync.Mutex
	dir      string
	seq      uint64
	lastHash string
	index    *sqliteIndex
	file     *os.File
	fileDate string
}

// New opens or creates a render log rooted at dir.
func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("renderlog: creating directory %s: %w", dir, err)
	}

	l := &Log{dir: dir, lastHash: "sha256:genesis"}

	idx, err := openIndex(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("renderlog: opening index: %w", err)
	}
	l.index = idx

	if err := l.loadGenesis(); err != nil {
		idx.close()
		return nil, err
	}
	if err := l.recoverState(); err != nil {
		idx.close()
		return nil, err
	}

	slog.Info("renderlog initialized", "dir", dir, "seq", l.seq)
	return l, nil
}

// Close flushes and closes the log and its index.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.index != nil {
		if err := l.index.close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("renderlog: closing: %v", errs)
	}
	return nil
}

// Record appends one render invocation to the chain. templateID is a
// caller-chosen label (a file path, a cache key — whatever names the
// template); it may be empty.
func (l *Log) Record(templateID string, flags uint32, dataBytes, outputBytes int, code int, latencyUs int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e := Entry{
		Seq:         l.seq,
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		TemplateID:  templateID,
		Flags:       flags,
		DataBytes:   dataBytes,
		OutputBytes: outputBytes,
		Code:        code,
		LatencyUs:   latencyUs,
		PrevHash:    l.lastHash,
	}
	e.Hash = computeHash(&e)

	if err := l.writeToFile(&e); err != nil {
		slog.Error("renderlog write failed", "seq", e.Seq, "error", err)
		return
	}
	if l.index != nil {
		l.index.insert(&e)
	}
	l.lastHash = e.Hash
}

// Tail returns the N most recent entries.
func (l *Log) Tail(limit int) ([]Entry, error) {
	if l.index != nil {
		return l.index.tail(limit)
	}
	return l.readAllEntries(limit)
}

// Query retrieves entries matching params via the SQLite index.
func (l *Log) Query(params QueryParams) ([]Entry, error) {
	if params.Since != "" && !strings.Contains(params.Since, "T") {
		d, err := time.ParseDuration(params.Since)
		if err != nil {
			return nil, fmt.Errorf("renderlog: invalid since duration %q: %w", params.Since, err)
		}
		params.Since = time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	}
	if l.index != nil {
		return l.index.query(params)
	}
	return l.readAllEntriesFiltered(params)
}

// VerifyChain reads every entry, starting from the genesis entry, and
// checks hash-chain integrity.
func (l *Log) VerifyChain() (VerifyResult, error) {
	entries, err := l.readAllEntries(0)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("renderlog: reading entries: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, "genesis.json"))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("renderlog: reading genesis: %w", err)
	}
	var genesis Entry
	if err := json.Unmarshal(data, &genesis); err != nil {
		return VerifyResult{}, fmt.Errorf("renderlog: parsing genesis: %w", err)
	}
	entries = append([]Entry{genesis}, entries...)
	if len(entries) == 0 {
		return VerifyResult{Valid: true}, nil
	}

	for i, e := range entries {
		expected := computeHash(&e)
		if e.Hash != expected {
			return VerifyResult{Valid: false, EntriesChecked: i + 1, BrokenAt: i, ExpectedHash: expected, ActualHash: e.Hash}, nil
		}
		if i > 0 && e.PrevHash != entries[i-1].Hash {
			return VerifyResult{Valid: false, EntriesChecked: i + 1, BrokenAt: i, ExpectedHash: entries[i-1].Hash, ActualHash: e.PrevHash}, nil
		}
	}
	return VerifyResult{Valid: true, EntriesChecked: len(entries)}, nil
}

// Export writes every entry to w in the given format ("jsonl" default,
// "json", or "csv").
func (l *Log) Export(w io.Writer, format string) error {
	entries, err := l.readAllEntries(0)
	if err != nil {
		return fmt.Errorf("renderlog: reading entries for export: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)

	case "csv":
		cw := csv.NewWriter(w)
		defer cw.Flush()
		if err := cw.Write([]string{"seq", "id", "ts", "template_id", "code", "data_bytes", "output_bytes", "latency_us", "hash"}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write([]string{
				fmt.Sprintf("%d", e.Seq), e.ID, e.Timestamp, e.TemplateID,
				fmt.Sprintf("%d", e.Code), fmt.Sprintf("%d", e.DataBytes),
				fmt.Sprintf("%d", e.OutputBytes), fmt.Sprintf("%d", e.LatencyUs), e.Hash,
			}); err != nil {
				return err
			}
		}
		return nil

	case "jsonl", "":
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("renderlog: unsupported export format %q", format)
	}
}

func (l *Log) writeToFile(e *Entry) error {
	today := time.Now().UTC().Format("2006-01-02")
	if l.file == nil || l.fileDate != today {
		if l.file != nil {
			l.file.Close()
		}
		path := filepath.Join(l.dir, today+".jsonl")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("renderlog: opening %s: %w", path, err)
		}
		l.file = f
		l.fileDate = today
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("renderlog: marshaling entry: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("renderlog: writing entry: %w", err)
	}
	return l.file.Sync()
}

func (l *Log) loadGenesis() error {
	path := filepath.Join(l.dir, "genesis.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l.createGenesis(path)
		}
		return fmt.Errorf("renderlog: reading genesis: %w", err)
	}

	var genesis Entry
	if err := json.Unmarshal(data, &genesis); err != nil {
		return fmt.Errorf("renderlog: parsing genesis: %w", err)
	}
	l.lastHash = genesis.Hash
	l.seq = genesis.Seq
	return nil
}

func (l *Log) createGenesis(path string) error {
	genesis := Entry{
		Seq:       0,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		TemplateID: "genesis",
		PrevHash:  "sha256:genesis",
	}
	genesis.Hash = computeHash(&genesis)

	data, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return fmt.Errorf("renderlog: marshaling genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("renderlog: writing genesis: %w", err)
	}
	l.lastHash = genesis.Hash
	l.seq = 0
	return nil
}

func (l *Log) recoverState() error {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.jsonl"))
	if err != nil {
		return fmt.Errorf("renderlog: listing files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	lastFile := files[len(files)-1]
	lastEntry, err := readLastEntry(lastFile)
	if err != nil {
		return fmt.Errorf("renderlog: recovering state from %s: %w", lastFile, err)
	}
	if lastEntry == nil {
		return nil
	}
	l.seq = lastEntry.Seq
	l.lastHash = lastEntry.Hash

	if l.index != nil {
		l.reindex(files)
	}
	return nil
}

func (l *Log) reindex(files []string) {
	last := l.index.lastSeq()
	for _, file := range files {
		entries, err := readEntriesFromFile(file)
		if err != nil {
			slog.Error("renderlog: reindex read failed", "file", file, "error", err)
			continue
		}
		for _, e := range entries {
			if e.Seq > last {
				l.index.insert(&e)
			}
		}
	}
}

func readLastEntry(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lastLine string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lastLine = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lastLine == "" {
		return nil, nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(lastLine), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func readEntriesFromFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			slog.Warn("renderlog: skipping malformed entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

func (l *Log) readAllEntries(limit int) ([]Entry, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("renderlog: listing files: %w", err)
	}
	var all []Entry
	for _, file := range files {
		entries, err := readEntriesFromFile(file)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (l *Log) readAllEntriesFiltered(params QueryParams) ([]Entry, error) {
	entries, err := l.readAllEntries(0)
	if err != nil {
		return nil, err
	}
	var filtered []Entry
	for _, e := range entries {
		if params.TemplateID != "" && e.TemplateID != params.TemplateID {
			continue
		}
		if params.FailedOnly && e.Code == 0 {
			continue
		}
		if params.Since != "" && e.Timestamp < params.Since {
			continue
		}
		filtered = append(filtered, e)
	}
	if params.Limit > 0 && len(filtered) > params.Limit {
		filtered = filtered[len(filtered)-params.Limit:]
	}
	return filtered, nil
}
