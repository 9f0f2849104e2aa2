package trace

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
	id         TEXT PRIMARY KEY,
	backend    TEXT NOT NULL,
	query      TEXT NOT NULL,
	output     TEXT NOT NULL,
	err        TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	at         TIMESTAMP NOT NULL
);
`

// SQLiteRecorder appends invocation events to a local SQLite file for
// offline inspection.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the trace database at path.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init trace schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// Record persists one event.
func (r *SQLiteRecorder) Record(event Event) error {
	_, err := r.db.Exec(
		`INSERT INTO invocations (id, backend, query, output, err, latency_ms, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Backend, event.Query, event.Output, event.Err,
		event.Latency.Milliseconds(), event.At,
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	return nil
}

// Events returns all recorded events, oldest first.
func (r *SQLiteRecorder) Events(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, backend, query, output, err, latency_ms, at FROM invocations ORDER BY at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var latencyMs int64
		if err := rows.Scan(&e.ID, &e.Backend, &e.Query, &e.Output, &e.Err, &latencyMs, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the database handle.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
