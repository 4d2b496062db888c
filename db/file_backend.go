package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.uber.org/multierr"

	"gradebook-server-go/models"
)

// FileBackend stores the collection as a JSON array in a single flat file.
type FileBackend struct {
	Path string
}

// NewFileBackend creates a FileBackend writing to path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load returns the students stored in the file. A missing or empty file
// yields an empty collection.
func (b *FileBackend) Load() ([]models.Student, error) {
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Student{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.Path, err)
	}
	if len(raw) == 0 {
		return []models.Student{}, nil
	}

	var students []models.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", b.Path, err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Save rewrites the whole file. The content goes to a temporary file in the
// same directory first and is renamed over the target.
func (b *FileBackend) Save(students []models.Student) error {
	if students == nil {
		students = []models.Student{}
	}
	raw, err := json.MarshalIndent(students, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode students: %w", err)
	}
	return writeAtomic(b.Path, func(f *os.File) error {
		_, err := f.Write(raw)
		return err
	})
}

// writeAtomic calls write on a temporary sibling of path, then renames it
// over path.
func writeAtomic(path string, write func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()

	if err := write(tmp); err != nil {
		return multierr.Append(fmt.Errorf("failed to write %s: %w", tmp.Name(), err), tmp.Close())
	}
	if err := tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("failed to sync %s: %w", tmp.Name(), err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
