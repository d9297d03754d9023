package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BackupManager keeps exported documents on disk before destructive
// operations such as import or clear
type BackupManager struct {
	dir string
	now func() time.Time
}

// BackupEntry describes one saved backup in the index
type BackupEntry struct {
	File      string    `yaml:"file"`
	Reason    string    `yaml:"reason"`
	Prompts   int       `yaml:"prompts"`
	Tags      int       `yaml:"tags"`
	CreatedAt time.Time `yaml:"created_at"`
}

// BackupIndex is the YAML index of every backup
type BackupIndex struct {
	Backups   []BackupEntry `yaml:"backups"`
	StorePath string        `yaml:"store_path,omitempty"`
	UpdatedAt time.Time     `yaml:"updated_at"`
}

// NewBackupManager creates a backup manager over dir
func NewBackupManager(dir string) *BackupManager {
	return &BackupManager{dir: dir, now: time.Now}
}

// DefaultBackupDir returns the backups directory next to the store
func DefaultBackupDir(storePath string) string {
	return filepath.Join(filepath.Dir(storePath), "backups")
}

// Dir returns the backup directory
func (bm *BackupManager) Dir() string {
	return bm.dir
}

// IndexPath returns the path of the index file
func (bm *BackupManager) IndexPath() string {
	return filepath.Join(bm.dir, "backups.yaml")
}

// LoadIndex loads the backup index. A missing index is empty.
func (bm *BackupManager) LoadIndex() (*BackupIndex, error) {
	data, err := os.ReadFile(bm.IndexPath())
	if os.IsNotExist(err) {
		return &BackupIndex{}, nil
	}
	if err != nil {
		return nil, err
	}
	var index BackupIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup index: %w", err)
	}
	return &index, nil
}

// Save writes doc as a new backup and records it in the index
func (bm *BackupManager) Save(doc *Document, reason, storePath string) (*BackupEntry, error) {
	if err := os.MkdirAll(bm.dir, 0755); err != nil {
		return nil, err
	}
	index, err := bm.LoadIndex()
	if err != nil {
		return nil, err
	}

	now := bm.now().UTC()
	name := fmt.Sprintf("backup_%s.yml", now.Format("20060102T150405.000"))
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.WriteFile(filepath.Join(bm.dir, name), data, 0644); err != nil {
		return nil, err
	}

	entry := BackupEntry{
		File:      name,
		Reason:    reason,
		Prompts:   len(doc.Order),
		Tags:      len(doc.Metadata.TagOrder),
		CreatedAt: now,
	}
	index.Backups = append(index.Backups, entry)
	index.StorePath = storePath
	index.UpdatedAt = now
	if err := bm.saveIndex(index); err != nil {
		return nil, err
	}
	LogInfo("Backed up %d prompts to %s", entry.Prompts, name)
	return &entry, nil
}

// Load reads a backup back into a document
func (bm *BackupManager) Load(file string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(bm.dir, filepath.Base(file)))
	if err != nil {
		return nil, err
	}
	return ParseDocument(data, "backup")
}

// Latest returns the newest backup entry
func (bm *BackupManager) Latest() (*BackupEntry, bool, error) {
	index, err := bm.LoadIndex()
	if err != nil || len(index.Backups) == 0 {
		return nil, false, err
	}
	entry := index.Backups[len(index.Backups)-1]
	return &entry, true, nil
}

// Prune keeps the newest keep backups and deletes the rest
func (bm *BackupManager) Prune(keep int) (int, error) {
	index, err := bm.LoadIndex()
	if err != nil {
		return 0, err
	}
	if keep < 0 || len(index.Backups) <= keep {
		return 0, nil
	}
	drop := index.Backups[:len(index.Backups)-keep]
	for _, entry := range drop {
		if err := os.Remove(filepath.Join(bm.dir, entry.File)); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	index.Backups = append([]BackupEntry(nil), index.Backups[len(index.Backups)-keep:]...)
	index.UpdatedAt = bm.now().UTC()
	return len(drop), bm.saveIndex(index)
}

func (bm *BackupManager) saveIndex(index *BackupIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal backup index: %w", err)
	}
	return os.WriteFile(bm.IndexPath(), data, 0644)
}
