package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/likesearch/internal/types"

	_ "modernc.org/sqlite"
)

const lastSearchKey = "lastSearch"

// ErrNoLastSearch means no search has been stored yet
var ErrNoLastSearch = errors.New("no previous search")

// Store keeps the last search result in a small SQLite key-value table
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// Busy timeout: a watch process and a one-off search may share the file
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`)
	return err
}

// Put stores value under key, replacing any previous value
func (s *Store) Put(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	return err
}

// Get returns the value under key. ok is false when the key is absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	var v string
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// SaveLastSearch overwrites the stored last search
func (s *Store) SaveLastSearch(ls types.LastSearch) error {
	data, err := json.Marshal(ls)
	if err != nil {
		return err
	}
	if err := s.Put(lastSearchKey, data); err != nil {
		return fmt.Errorf("failed to save last search: %w", err)
	}
	return nil
}

// LoadLastSearch returns the stored last search or ErrNoLastSearch
func (s *Store) LoadLastSearch() (*types.LastSearch, error) {
	data, ok, err := s.Get(lastSearchKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load last search: %w", err)
	}
	if !ok {
		return nil, ErrNoLastSearch
	}

	var ls types.LastSearch
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("failed to decode last search: %w", err)
	}
	return &ls, nil
}
