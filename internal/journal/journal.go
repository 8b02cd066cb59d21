// Package journal keeps a sqlite record of mirroring sessions: which device,
// what resolution, when they started and stopped.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	serial      TEXT NOT NULL,
	device_name TEXT NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	stopped_at  TIMESTAMP
);`

type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and reconciles state:
// rows still marked running belong to a previous process and are closed out.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	if _, err := db.Exec(
		`UPDATE sessions SET status = 'stopped', stopped_at = ? WHERE status = 'running'`,
		time.Now(),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("reconcile journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records a freshly started session.
func (j *Journal) Begin(id uuid.UUID, serial, deviceName string, width, height uint16) error {
	_, err := j.db.Exec(
		`INSERT INTO sessions (id, serial, device_name, width, height, status, started_at)
		 VALUES (?, ?, ?, ?, ?, 'running', ?)`,
		id.String(), serial, deviceName, width, height, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	return nil
}

// End marks a session stopped. Unknown ids are a no-op.
func (j *Journal) End(id uuid.UUID) error {
	_, err := j.db.Exec(
		`UPDATE sessions SET status = 'stopped', stopped_at = ? WHERE id = ? AND status = 'running'`,
		time.Now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("journal end: %w", err)
	}
	return nil
}

// Entry is one journal row.
type Entry struct {
	ID         string
	Serial     string
	DeviceName string
	Width      int
	Height     int
	Status     string
	StartedAt  time.Time
	StoppedAt  *time.Time
}

// Recent returns the newest n sessions, most recent first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, serial, device_name, width, height, status, started_at, stopped_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Serial, &e.DeviceName, &e.Width, &e.Height,
			&e.Status, &e.StartedAt, &e.StoppedAt); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
