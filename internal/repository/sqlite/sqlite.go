// Package sqlite implements the repository interfaces on an embedded SQLite
// file.
//
// The session must survive process restarts, and a single SQLite file is the
// closest idiomatic match to that need: zero infrastructure, one file next to
// the binary, and the write of the whole snapshot is a single statement —
// atomic, so a reader can never catch a credential without its profile.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite — no CGo, no C compiler, trivial
// cross-compilation. The driver registers itself with database/sql under the
// name "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and carries the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force a real connection now so a bad path fails here, not on first use.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed during a write; relevant because the session
	// store is read on every authenticated request.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer it wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to run
// on every start.
func (db *DB) migrate() error {
	// One row, ever: slot is pinned to 1. The whole session snapshot lives in
	// that row so that replacing it is one statement.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			slot       INTEGER PRIMARY KEY CHECK (slot = 1),
			credential TEXT NOT NULL,
			profile    TEXT NOT NULL,
			saved_at   DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating session table: %w", err)
	}

	return nil
}
