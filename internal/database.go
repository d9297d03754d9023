package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	_ "modernc.org/sqlite"
)

// ItemTable mirrors the browser's local storage: one row per fixed string key,
// value is the serialized blob.
const createItemTableSQL = `
CREATE TABLE IF NOT EXISTS ItemTable (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) the SQLite key/value database.
// A locked database is retried up to attempts times.
func OpenDatabase(path string, attempts uint) (*sql.DB, error) {
	if attempts == 0 {
		attempts = 1
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	var db *sql.DB
	err := retry.Do(
		func() error {
			conn, err := sql.Open("sqlite", path)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to open database: %w", err))
			}
			// One connection keeps :memory: databases coherent and serializes
			// the read-modify-write cycles of a single process.
			conn.SetMaxOpenConns(1)

			if err := conn.Ping(); err != nil {
				_ = conn.Close()
				return fmt.Errorf("database ping failed: %w", err)
			}
			if _, err := conn.Exec(createItemTableSQL); err != nil {
				_ = conn.Close()
				return fmt.Errorf("failed to create ItemTable: %w", err)
			}
			db = conn
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusyError),
		retry.OnRetry(func(n uint, err error) {
			LogDebug("Database busy, retrying (%d/%d): %v", n+1, attempts, err)
		}),
	)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return db, nil
}

// QueryItemTable queries ItemTable with a LIKE pattern
func QueryItemTable(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := `SELECT key, value FROM ItemTable WHERE key LIKE ? ESCAPE '\' AND value IS NOT NULL ORDER BY key`
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// KeyValuePair represents a key-value pair from ItemTable
type KeyValuePair struct {
	Key   string
	Value string
}

// likePrefix turns a literal key prefix into a LIKE pattern
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func isBusyError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
