package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Local stores uploaded documents on the local filesystem under a base
// directory. Keys are relative paths; durability beyond the filesystem
// is out of scope.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// MakeObjectKey builds a per-case object key:
// case/<caseID>/<uuid>_<filename>. The random prefix keeps re-uploads
// of the same filename from colliding.
func (l *Local) MakeObjectKey(caseID, filename string) string {
	return filepath.Join("case", caseID, uuid.NewString()+"_"+filepath.Base(filename))
}

// Save writes the object, creating parent directories as needed.
func (l *Local) Save(key string, r io.Reader) error {
	path := filepath.Join(l.dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage: write: %w", err)
	}
	return nil
}

// Open returns a reader over a stored object.
func (l *Local) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.dir, key))
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return f, nil
}

// Delete removes an object. Idempotent: a missing object is success.
func (l *Local) Delete(key string) error {
	err := os.Remove(filepath.Join(l.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}
