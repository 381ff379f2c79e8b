package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nexoft/phonebook/internal/bus"
)

// Event kinds published by the store after committed mutations. Watchers
// subscribe to these to re-emit live snapshots.
const (
	EventContactsChanged = "store.contacts_changed"
	EventHistoryChanged  = "store.history_changed"
)

// DB wraps a SQLite database connection for the profile-owned phonebook.db.
// Every committed mutation publishes a change event on the bus, so live
// queries cannot miss updates regardless of which component wrote.
type DB struct {
	*sql.DB
	bus *bus.Bus
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
// The bus may be nil when change notification is not needed.
func Open(path string, b *bus.Bus) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, bus: b}, nil
}

func (db *DB) notify(kind string) {
	if db.bus == nil {
		return
	}
	db.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now()})
}
