// ABOUTME: FileStore keeps the habit forest as one JSON document on disk
// ABOUTME: Saves go through a temp file and rename so readers never see a partial write

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/2389/habit-gateway/internal/habit"
)

// FileStore is a TreeStore backed by a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for the document at path. The file does
// not need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the backing document.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the forest.
func (s *FileStore) Load() (habit.Forest, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return habit.Forest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, s.path, err)
	}
	return decodeForest(data)
}

// Save encodes f and atomically replaces the document with it.
func (s *FileStore) Save(f habit.Forest) error {
	data, err := encodeForest(f)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating data directory: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrIO, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing %s: %v", ErrIO, s.path, err)
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// decodeForest turns document bytes into a forest. Blank input is an empty forest.
func decodeForest(data []byte) (habit.Forest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return habit.Forest{}, nil
	}

	if err := validateForest(data); err != nil {
		return nil, err
	}

	var forest habit.Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if forest == nil {
		forest = habit.Forest{}
	}
	return forest, nil
}

// encodeForest renders the forest as the on-disk document. A nil forest is written as [].
func encodeForest(f habit.Forest) ([]byte, error) {
	if f == nil {
		f = habit.Forest{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding forest: %w", err)
	}
	return append(data, '\n'), nil
}
