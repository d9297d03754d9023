package internal

import (
	"os"
	"path/filepath"
)

// LibraryPaths holds the resolved on-disk locations used by the CLI
type LibraryPaths struct {
	Baseline string // read-only baseline document
	Store    string // SQLite key/value store
	Backups  string // export backups taken before destructive operations
}

// DetectPaths resolves the configured paths to absolute ones
func DetectPaths(cfg *Config) LibraryPaths {
	return LibraryPaths{
		Baseline: absPath(cfg.Baseline),
		Store:    absPath(cfg.Store),
		Backups:  DefaultBackupDir(absPath(cfg.Store)),
	}
}

// BaselineExists checks if the baseline document exists
func (lp LibraryPaths) BaselineExists() bool {
	return fileExists(lp.Baseline)
}

// StoreExists checks if the store database exists
func (lp LibraryPaths) StoreExists() bool {
	return fileExists(lp.Store)
}

// EnsureStoreDir creates the directory holding the store
func (lp LibraryPaths) EnsureStoreDir() error {
	return os.MkdirAll(filepath.Dir(lp.Store), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
