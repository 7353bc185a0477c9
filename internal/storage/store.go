package storage

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// Store persists the full application state. There is no partial or
// incremental write: every save replaces the previous snapshot.
type Store interface {
	Save(state models.AppState) error
	Load() (models.AppState, error)
}

// FileStore keeps the snapshot in a single file, the local-storage-key
// analog of the browser original. The filesystem is abstracted so tests
// run against an in-memory one.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore builds a store writing to path on the given filesystem.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Save writes the state as a JSON blob, creating parent directories as
// needed.
func (s *FileStore) Save(state models.AppState) error {
	data, err := EncodeSnapshot(state)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot. A missing or malformed file is
// an error; the caller decides the fallback.
func (s *FileStore) Load() (models.AppState, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return models.AppState{}, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}
