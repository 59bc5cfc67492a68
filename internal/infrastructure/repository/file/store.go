package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Store keeps each document as <dir>/<name>.json.
type Store struct {
	mu  sync.RWMutex
	dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Read(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, crerr.Wrapf(err, "read %s", s.Path(name))
	}
	return raw, true, nil
}

// Write overwrites the document in place. Writers in other processes are
// not coordinated; the last one wins and a reader can observe a torn file.
func (s *Store) Write(_ context.Context, name string, _ time.Time, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return crerr.Wrapf(err, "create cache dir %s", s.dir)
	}
	if err := os.WriteFile(s.Path(name), payload, 0o644); err != nil {
		return crerr.Wrapf(err, "write %s", s.Path(name))
	}
	return nil
}
