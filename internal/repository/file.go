package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the snapshot in a single JSON file on local disk.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot file.
// Returns ErrNoSnapshot if the file does not exist.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Save rewrites the snapshot through a temp file and rename so readers never
// see a half-written document.
func (s *FileStore) Save(_ context.Context, doc []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Ping checks that the snapshot directory is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("snapshot dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot dir %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}
