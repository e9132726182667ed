package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"library/internal/fact"
	"library/internal/storage"
)

// FileDB keeps the fact set in a single N-Triples file.
type FileDB struct {
	path string
}

// NewFileDB returns a backend writing to path. The file is not touched until
// Load or Save is called.
func NewFileDB(path string) *FileDB {
	return &FileDB{path: path}
}

// Path returns the location of the data file.
func (db *FileDB) Path() string { return db.path }

// Initialize makes sure the parent directory exists.
func (db *FileDB) Initialize(ctx context.Context) error {
	dir := filepath.Dir(db.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

// Load reads and decodes the data file.
func (db *FileDB) Load(ctx context.Context) ([]fact.Triple, error) {
	f, err := os.Open(db.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", db.path, err)
	}
	defer f.Close()

	triples, err := fact.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", db.path, err)
	}
	return triples, nil
}

// Save writes the fact set to a temporary file next to the target and renames
// it into place, so a failed write never leaves a truncated data file.
func (db *FileDB) Save(ctx context.Context, triples []fact.Triple) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.path), filepath.Base(db.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := fact.Write(tmp, triples); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode facts: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, db.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", db.path, err)
	}
	return nil
}

// Close does nothing for the file backend
func (db *FileDB) Close() error {
	return nil
}
