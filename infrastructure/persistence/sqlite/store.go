// Package sqlite provides annotation repositories backed by an embedded
// SQLite database. It is the default store for single-host deployments and
// for the readerctl tooling; the DynamoDB store covers the serverless path.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store owns the database handle shared by the note and highlight
// repositories.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the database file, creating it and its parent directory
// if needed, and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applySchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applySchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id              TEXT PRIMARY KEY,
			owner_id        TEXT NOT NULL,
			work_title      TEXT NOT NULL,
			part_title      TEXT NOT NULL DEFAULT '',
			chapter_title   TEXT NOT NULL,
			title           TEXT NOT NULL DEFAULT '',
			content         TEXT NOT NULL,
			note_type       TEXT NOT NULL,
			selected_text   TEXT,
			selection_start INTEGER,
			selection_end   INTEGER,
			element_id      TEXT,
			xpath           TEXT,
			tags_json       TEXT NOT NULL DEFAULT '[]',
			is_public       INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_owner_created
			ON notes(owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS highlights (
			id              TEXT PRIMARY KEY,
			owner_id        TEXT NOT NULL,
			note_id         TEXT NOT NULL DEFAULT '',
			work_title      TEXT NOT NULL,
			part_title      TEXT NOT NULL DEFAULT '',
			chapter_title   TEXT NOT NULL,
			selected_text   TEXT NOT NULL,
			color           TEXT NOT NULL,
			selection_start INTEGER NOT NULL,
			selection_end   INTEGER NOT NULL,
			element_id      TEXT,
			xpath           TEXT,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_owner_created
			ON highlights(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_owner_note
			ON highlights(owner_id, note_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
