// Package store persists keybindings and global settings in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"keybrame/internal/input"
)

// ErrNotFound is returned when a keybinding id does not exist
var ErrNotFound = errors.New("keybinding not found")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	type  TEXT NOT NULL CHECK(type IN ('string', 'integer', 'array'))
);

CREATE TABLE IF NOT EXISTS keybindings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	keys        TEXT NOT NULL,
	type        TEXT NOT NULL CHECK(type IN ('toggle', 'hold')),
	image       TEXT NOT NULL,
	description TEXT,
	priority    INTEGER DEFAULT 0,
	enabled     BOOLEAN DEFAULT 1,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_keybindings_priority ON keybindings(priority DESC, id);

CREATE TABLE IF NOT EXISTS transitions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	keybinding_id INTEGER NOT NULL,
	direction     TEXT NOT NULL CHECK(direction IN ('in', 'out')),
	image         TEXT NOT NULL,
	duration      INTEGER,
	FOREIGN KEY (keybinding_id) REFERENCES keybindings(id) ON DELETE CASCADE,
	UNIQUE(keybinding_id, direction)
);
`

// Default settings written into a new database.
const (
	DefaultPort = 5000
)

// DefaultShutdownCombo is the shutdown combo seeded into a new database
var DefaultShutdownCombo = []input.Key{input.KeyCtrl, input.KeyShift, "q"}

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path. A new database gets the
// schema and default settings; an existing one has legacy image paths
// migrated once.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps pragmas and writes consistent.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(ctx, existed); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) init(ctx context.Context, existed bool) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if !existed {
		if err := s.seed(ctx); err != nil {
			return err
		}
		slog.Info("[store] created database with default settings", "path", s.path)
		return nil
	}

	n, err := s.migrateImagePaths(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("[store] migrated legacy image paths to assets/", "rows", n)
	}
	slog.Debug("[store] using existing database", "path", s.path)
	return nil
}

func (s *Store) seed(ctx context.Context) error {
	combo, _ := json.Marshal(DefaultShutdownCombo)
	seeds := []struct{ key, value, typ string }{
		{keyPort, fmt.Sprint(DefaultPort), typeInteger},
		{keyShutdownCombo, string(combo), typeArray},
		{keyDefaultImage, "", typeString},
	}
	for _, sd := range seeds {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value, type) VALUES (?, ?, ?)",
			sd.key, sd.value, sd.typ)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", sd.key, err)
		}
	}
	return nil
}

// migrateImagePaths rewrites images/ and img/ references to assets/. It is a
// no-op once no legacy path is left.
func (s *Store) migrateImagePaths(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM keybindings WHERE image LIKE 'images/%' OR image LIKE 'img/%'").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to check legacy paths: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, old := range []string{"images/", "img/"} {
		stmts := []string{
			"UPDATE keybindings SET image = 'assets/' || substr(image, ?) WHERE image LIKE ? || '%'",
			"UPDATE transitions SET image = 'assets/' || substr(image, ?) WHERE image LIKE ? || '%'",
			"UPDATE settings SET value = 'assets/' || substr(value, ?) WHERE key = 'default_image' AND value LIKE ? || '%'",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, len(old)+1, old); err != nil {
				return 0, fmt.Errorf("failed to migrate image paths: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
