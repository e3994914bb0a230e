// Package chronicle provides SQLite-based recording of world events. The
// simulation itself is in-memory only; the chronicle is a write-behind log
// of everything notable that happened, useful for debugging a world after
// the fact.
package chronicle

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pookielabs/pookieverse/internal/engine"
)

const bufferSize = 512

// Chronicle is an engine.EventSink backed by SQLite. Record never blocks
// the owner goroutine: events go through a buffered channel to a single
// writer goroutine, and are dropped with a warning if the buffer is full.
type Chronicle struct {
	conn   *sqlx.DB
	events chan engine.Event
	done   chan struct{}
}

// Open opens or creates the chronicle database at the given path and starts
// the writer.
func Open(path string) (*Chronicle, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	c := &Chronicle{
		conn:   conn,
		events: make(chan engine.Event, bufferSize),
		done:   make(chan struct{}),
	}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	go c.writeLoop()
	return c, nil
}

// Close drains buffered events and closes the database.
func (c *Chronicle) Close() error {
	close(c.events)
	<-c.done
	return c.conn.Close()
}

func (c *Chronicle) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		timestamp_millis INTEGER NOT NULL,
		category TEXT NOT NULL,
		pookie TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_world ON events(world_id, timestamp_millis);
	CREATE INDEX IF NOT EXISTS idx_events_pookie ON events(world_id, pookie);
	`
	_, err := c.conn.Exec(schema)
	return err
}

// Record implements engine.EventSink.
func (c *Chronicle) Record(e engine.Event) {
	select {
	case c.events <- e:
	default:
		slog.Warn("chronicle buffer full, dropping event", "world", e.WorldID, "category", e.Category)
	}
}

func (c *Chronicle) writeLoop() {
	defer close(c.done)
	for e := range c.events {
		_, err := c.conn.Exec(
			"INSERT INTO events (world_id, timestamp_millis, category, pookie, text) VALUES (?, ?, ?, ?, ?)",
			e.WorldID, e.TimestampMillis, e.Category, e.Pookie, e.Text,
		)
		if err != nil {
			slog.Error("chronicle write failed", "error", err)
		}
	}
}

// RecentEvents returns up to limit most recent events for a world, newest
// first.
func (c *Chronicle) RecentEvents(worldID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := c.conn.Select(&events, `
		SELECT world_id, timestamp_millis, category, pookie, text
		FROM events WHERE world_id = ?
		ORDER BY id DESC LIMIT ?`,
		worldID, limit,
	)
	return events, err
}

// PookieEvents returns up to limit most recent events involving one pookie,
// newest first.
func (c *Chronicle) PookieEvents(worldID, pookie string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := c.conn.Select(&events, `
		SELECT world_id, timestamp_millis, category, pookie, text
		FROM events WHERE world_id = ? AND pookie = ?
		ORDER BY id DESC LIMIT ?`,
		worldID, pookie, limit,
	)
	return events, err
}
