package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/models"
)

// FileStatStore implements StatStore as a single JSON document at
// <dataDir>/progress_data.json. Saves go through a temp file and rename.
type FileStatStore struct {
	mu   sync.RWMutex
	dir  string
	path string
}

// NewFileStatStore creates a FileStatStore rooted at dataDir, creating the
// directory if needed. No snapshot is written until Save.
func NewFileStatStore(dataDir string) (*FileStatStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStatStore{
		dir:  dataDir,
		path: filepath.Join(dataDir, constants.SnapshotFileName),
	}, nil
}

// Path returns the snapshot file path.
func (s *FileStatStore) Path() string {
	return s.path
}

// Load reads the snapshot, returning the default schema if none exists.
func (s *FileStatStore) Load(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultSnapshot(), nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, corruptf("%s: %v", s.path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, corruptf("%s: %v", s.path, err)
	}
	return snapshot, nil
}

// Save writes the snapshot atomically.
func (s *FileStatStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFileAtomic(s.path, data)
}

// Exists reports whether the snapshot file exists.
func (s *FileStatStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Close is a no-op; the file store holds no open handles.
func (s *FileStatStore) Close() error {
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it, and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
