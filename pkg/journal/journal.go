// Package journal keeps a SQLite history of handled chat messages.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat is fixed-width so stored times sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

// Entry is one handled message.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	// Kind is how the message was handled: greeting, help, command, jog or empty.
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Value   string `json:"value,omitempty"`
	Source  string `json:"source,omitempty"`
	Planned int    `json:"planned"`
	Applied int    `json:"applied"`
	Status  string `json:"status"`
	Reply   string `json:"reply"`
}

// Journal is an append-only message history.
type Journal struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open opens or creates the journal database at path. The special path
// ":memory:" keeps the journal in memory.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create journal dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends e, filling in its ID and time when empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return Entry{}, ErrClosed
	}

	if e.ID == "" {
		e.ID = newID()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (entry_id, created_at, message, kind, target, value, source, planned, applied, status, reply)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.Format(timeFormat), e.Message, e.Kind, e.Target, e.Value, e.Source,
		e.Planned, e.Applied, e.Status, e.Reply,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT entry_id, created_at, message, kind, target, value, source, planned, applied, status, reply
		 FROM entries ORDER BY created_at DESC, entry_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.Message, &e.Kind, &e.Target, &e.Value, &e.Source,
			&e.Planned, &e.Applied, &e.Status, &e.Reply); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Time, err = time.Parse(timeFormat, created)
		if err != nil {
			return nil, fmt.Errorf("parse entry time: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database. It is idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
