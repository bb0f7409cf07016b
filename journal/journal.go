// Package journal persists fired events to SQLite so a run can be
// inspected after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO-free SQLite

	"github.com/partline/partline"
)

// Entry is one fired event.
type Entry struct {
	ID      string // uuid, assigned by Record when empty
	Part    string
	Tick    int64
	Value   string
	FiredAt time.Time
}

// Journal is an append-only store of entries.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) a journal database at path.
func Open(path string) (*Journal, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS fired_events(
	  id       TEXT    PRIMARY KEY,
	  part     TEXT    NOT NULL,
	  tick     INTEGER NOT NULL,
	  value    TEXT    NOT NULL,
	  fired_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fired_events_part ON fired_events(part);
	CREATE INDEX IF NOT EXISTS idx_fired_events_tick ON fired_events(tick);
	`)
	if err != nil {
		return fmt.Errorf("journal: create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one entry, filling ID and FiredAt when zero.
func (j *Journal) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = time.Now().UTC()
	}
	_, err := j.db.Exec(
		`INSERT INTO fired_events(id, part, tick, value, fired_at) VALUES(?,?,?,?,?)`,
		e.ID, e.Part, e.Tick, e.Value, e.FiredAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Entries returns every entry for part in tick order.
func (j *Journal) Entries(part string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, part, tick, value, fired_at FROM fired_events WHERE part = ? ORDER BY tick, fired_at`,
		part,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var firedAt int64
		if err := rows.Scan(&e.ID, &e.Part, &e.Tick, &e.Value, &firedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.FiredAt = time.UnixMicro(firedAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count reports the total number of entries.
func (j *Journal) Count() (int64, error) {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM fired_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}

// Wrap returns a callback that records every fired event under the given
// part name before forwarding to next. Record failures are dropped: the
// trigger path must not block or error.
func (j *Journal) Wrap(part string, next partline.Callback) partline.Callback {
	return func(tick int64, value any) {
		_ = j.Record(Entry{Part: part, Tick: tick, Value: fmt.Sprint(value)})
		if next != nil {
			next(tick, value)
		}
	}
}
