package renderlog

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// sqliteIndex is a queryable projection of the JSONL chain: the JSONL
// files remain the source of truth (and the thing VerifyChain checks),
// this is purely an accelerator for Query/Tail, rebuilt from the JSONL
// files on recovery if it's missing or behind. Adapted from the
// teacher's audit/index.go sqliteIndex.
type sqliteIndex struct {
	db *sql.DB
}

func openIndex(path string) (*sqliteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("renderlog: opening sqlite index: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		seq          INTEGER PRIMARY KEY,
		id           TEXT NOT NULL,
		ts           TEXT NOT NULL,
		template_id  TEXT,
		flags        INTEGER NOT NULL,
		data_bytes   INTEGER NOT NULL,
		output_bytes INTEGER NOT NULL,
		code         INTEGER NOT NULL,
		latency_us   INTEGER NOT NULL,
		prev_hash    TEXT NOT NULL,
		hash         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_template ON entries(template_id);
	CREATE INDEX IF NOT EXISTS idx_entries_code ON entries(code);
	CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("renderlog: creating schema: %w", err)
	}

	return &sqliteIndex{db: db}, nil
}

func (idx *sqliteIndex) close() error {
	return idx.db.Close()
}

func (idx *sqliteIndex) insert(e *Entry) {
	_, err := idx.db.Exec(
		`INSERT OR REPLACE INTO entries
		 (seq, id, ts, template_id, flags, data_bytes, output_bytes, code, latency_us, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, e.ID, e.Timestamp, e.TemplateID, e.Flags,
		e.DataBytes, e.OutputBytes, e.Code, e.LatencyUs, e.PrevHash, e.Hash,
	)
	if err != nil {
		// Index writes are best-effort; the JSONL chain is authoritative
		// and recoverState rebuilds this on next startup if it drifts.
		_ = err
	}
}

func (idx *sqliteIndex) lastSeq() uint64 {
	var seq sql.NullInt64
	if err := idx.db.QueryRow(`SELECT MAX(seq) FROM entries`).Scan(&seq); err != nil {
		return 0
	}
	if !seq.Valid {
		return 0
	}
	return uint64(seq.Int64)
}

func (idx *sqliteIndex) tail(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := idx.db.Query(
		`SELECT seq, id, ts, template_id, flags, data_bytes, output_bytes, code, latency_us, prev_hash, hash
		 FROM entries ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("renderlog: tail query: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (idx *sqliteIndex) query(params QueryParams) ([]Entry, error) {
	q := `SELECT seq, id, ts, template_id, flags, data_bytes, output_bytes, code, latency_us, prev_hash, hash FROM entries WHERE 1=1`
	var args []any

	if params.TemplateID != "" {
		q += ` AND template_id = ?`
		args = append(args, params.TemplateID)
	}
	if params.FailedOnly {
		q += ` AND code != 0`
	}
	if params.Since != "" {
		q += ` AND ts >= ?`
		args = append(args, params.Since)
	}
	q += ` ORDER BY seq DESC`
	if params.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, params.Limit)
	}

	rows, err := idx.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("renderlog: query: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var templateID sql.NullString
		if err := rows.Scan(&e.Seq, &e.ID, &e.Timestamp, &templateID, &e.Flags,
			&e.DataBytes, &e.OutputBytes, &e.Code, &e.LatencyUs, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("renderlog: scanning row: %w", err)
		}
		e.TemplateID = templateID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
