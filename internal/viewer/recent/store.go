// Package recent tracks recently opened capture logs for the viewer's
// /_recent endpoint. It is a development convenience only: neither cook
// nor proxy ever reads from it.
package recent

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Entry is one recently opened capture log.
type Entry struct {
	Path       string    `db:"path" json:"path"`
	LastOpened time.Time `db:"last_opened" json:"last_opened"`
}

// Store is a small sqlite-backed index of recently opened capture logs.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the recent-artifacts index at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recent store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS recent (
		path TEXT PRIMARY KEY,
		last_opened DATETIME NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create recent table: %w", err)
	}
	return &Store{db: db}, nil
}

// Touch records path as opened just now, updating it if already present.
func (s *Store) Touch(path string) error {
	_, err := s.db.Exec(`
		INSERT INTO recent (path, last_opened) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET last_opened = excluded.last_opened`,
		path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch recent %q: %w", path, err)
	}
	return nil
}

// List returns up to limit entries, most recently opened first.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.Select(&entries, `
		SELECT path, last_opened FROM recent
		ORDER BY last_opened DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
