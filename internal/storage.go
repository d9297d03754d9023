package internal

import (
	"database/sql"
	"errors"
	"fmt"
)

// KV is the persistent key/value medium. Every value is a whole serialized
// blob; there are no partial updates and no transactions.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Scan(prefix string) ([]KeyValuePair, error)
}

// Storage is the SQLite-backed KV
type Storage struct {
	db   *sql.DB
	path string
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db, path: "ItemTable"}
}

// OpenStorage opens the database at path and wraps it
func OpenStorage(path string, attempts uint) (*Storage, error) {
	db, err := OpenDatabase(path, attempts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db, path: path}, nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key
func (s *Storage) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "get", Err: fmt.Errorf("%s: %w", key, err)}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set overwrites the value stored under key
func (s *Storage) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO ItemTable (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Path: s.path, Op: "set", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (s *Storage) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM ItemTable WHERE key = ?", key); err != nil {
		return &StorageError{Path: s.path, Op: "remove", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// Scan returns every pair whose key starts with prefix, ordered by key
func (s *Storage) Scan(prefix string) ([]KeyValuePair, error) {
	pairs, err := QueryItemTable(s.db, likePrefix(prefix))
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "scan", Err: err}
	}
	return pairs, nil
}
