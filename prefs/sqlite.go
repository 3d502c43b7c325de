package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary
)

const schema = `CREATE TABLE IF NOT EXISTS preferences (
	name  TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (name, key)
)`

// DB persists preference stores in one SQLite file.
type DB struct {
	db *sql.DB
}

// OpenDB opens (creating if needed) the preferences database at path.
func OpenDB(ctx context.Context, path string) (*DB, error) {
	const dirPerm = 0o750
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Open loads the named store. It satisfies OpenFunc.
func (d *DB) Open(name string) (Store, error) {
	rows, err := d.db.Query("SELECT key, value FROM preferences WHERE name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences %q: %w", name, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preferences %q: %w", name, err)
	}
	return &sqlStore{db: d.db, name: name, values: values}, nil
}

type sqlStore struct {
	db   *sql.DB
	name string

	mu     sync.RWMutex
	values map[string]string
}

func (s *sqlStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *sqlStore) Put(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *sqlStore) Remove(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

func (s *sqlStore) Clear() {
	s.mu.Lock()
	s.values = make(map[string]string)
	s.mu.Unlock()
}

func (s *sqlStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush replaces the persisted values of this store with the in-memory ones.
func (s *sqlStore) Flush() error {
	s.mu.RLock()
	snapshot := make(map[string]string, len(s.values))
	for k, v := range s.values {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin flush: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM preferences WHERE name = ?", s.name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear preferences %q: %w", s.name, err)
	}
	for k, v := range snapshot {
		if _, err := tx.Exec("INSERT INTO preferences (name, key, value) VALUES (?, ?, ?)", s.name, k, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to write preference %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preferences %q: %w", s.name, err)
	}
	return nil
}
