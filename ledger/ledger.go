// Package ledger records the digest of every artifact a pipeline run
// produces, so later runs over the same source can be checked against
// earlier ones.
//
// Usage:
//
//	l, err := ledger.Open("pixelsift.db")
//	defer l.Close()
//	err = l.Record(ctx, ledger.Entry{RunID: id, Source: "mountain.png", ...})
//
// In tests:
//
//	l := ledger.OpenMemory(t)
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Latest when nothing has been recorded.
var ErrNotFound = errors.New("ledger: no entry")

const schema = `
CREATE TABLE IF NOT EXISTS digests (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT    NOT NULL,
	source     TEXT    NOT NULL,
	stage      TEXT    NOT NULL,
	artifact   TEXT    NOT NULL DEFAULT '',
	digest     TEXT    NOT NULL,
	height     INTEGER NOT NULL,
	width      INTEGER NOT NULL,
	channels   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_digests_source_stage ON digests(source, stage, id);
CREATE INDEX IF NOT EXISTS idx_digests_run ON digests(run_id);
`

// Entry is one recorded artifact digest.
type Entry struct {
	RunID     string
	Source    string
	Stage     string
	Artifact  string
	Digest    string
	Height    int
	Width     int
	Channels  int
	CreatedAt time.Time
}

// Ledger is a SQLite-backed digest history.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("ledger: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// OpenMemory opens an in-memory ledger closed at the end of the test.
func OpenMemory(t testing.TB) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("ledger.OpenMemory: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores e. A zero CreatedAt is set to now.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.RunID == "" || e.Source == "" || e.Stage == "" || e.Digest == "" {
		return fmt.Errorf("ledger: record: run_id, source, stage and digest are required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO digests (run_id, source, stage, artifact, digest, height, width, channels, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Source, e.Stage, e.Artifact, e.Digest,
		e.Height, e.Width, e.Channels, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	return nil
}

// History returns up to limit entries for source, newest first. A limit
// of zero or less returns every entry.
func (l *Ledger) History(ctx context.Context, source string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, source, stage, artifact, digest, height, width, channels, created_at
		 FROM digests WHERE source = ? ORDER BY id DESC LIMIT ?`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Latest returns the newest entry for source at stage, or ErrNotFound.
func (l *Ledger) Latest(ctx context.Context, source, stage string) (Entry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT run_id, source, stage, artifact, digest, height, width, channels, created_at
		 FROM digests WHERE source = ? AND stage = ? ORDER BY id DESC LIMIT 1`, source, stage)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: latest: %w", err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var created int64
	err := s.Scan(&e.RunID, &e.Source, &e.Stage, &e.Artifact, &e.Digest,
		&e.Height, &e.Width, &e.Channels, &created)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.UnixMilli(created)
	return e, nil
}
