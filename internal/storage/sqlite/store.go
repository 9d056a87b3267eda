// Package sqlite implements the storage interfaces on an embedded SQLite
// database via modernc.org/sqlite. It is the default backend: a single file
// (or :memory: for tests) holding the memo catalog, the theme tree, and the
// relevance engine's learning tables.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Schema creates all tables used by the store. The layout mirrors the app's
// data model: memos and themes with join tables for theme links, keywords,
// and child edges, plus the two learning tables.
const Schema = `
CREATE TABLE IF NOT EXISTS memos (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS memo_themes (
	memo_id  TEXT    NOT NULL,
	theme_id TEXT    NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (memo_id, position)
);

CREATE TABLE IF NOT EXISTS themes (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	icon         TEXT NOT NULL DEFAULT 'label',
	color        TEXT NOT NULL DEFAULT '',
	parent_theme TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS theme_keywords (
	theme_id TEXT    NOT NULL,
	keyword  TEXT    NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (theme_id, position)
);

CREATE TABLE IF NOT EXISTS theme_children (
	theme_id TEXT    NOT NULL,
	child_id TEXT    NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (theme_id, position)
);

CREATE TABLE IF NOT EXISTS user_patterns (
	word     TEXT    NOT NULL,
	theme_id TEXT    NOT NULL,
	count    INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (word, theme_id)
);

CREATE TABLE IF NOT EXISTS frequent_terms (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	term  TEXT    NOT NULL UNIQUE,
	count INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_memo_themes_theme ON memo_themes(theme_id);
CREATE INDEX IF NOT EXISTS idx_user_patterns_word ON user_patterns(word);
`

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dsn (a file path or ":memory:"),
// configures it for single-writer use, and creates the schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY under interleaved calls;
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for host-level maintenance (backups,
// integrity checks). Regular callers should stay on the interfaces.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
