package reportstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/depweight/pkg/errors"
)

// FileStore keeps each run as <dir>/<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create run dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory runs are stored in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(_ context.Context, r *Run) error {
	if err := validateID(r.ID); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "run ID %q is not a UUID", r.ID)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(r.ID), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write run %s", r.ID)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*Run, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(id))
}

func (s *FileStore) read(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound(strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "parse %s", path)
	}
	return &r, nil
}

// List skips files that are not valid runs.
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read run dir %s", s.dir)
	}

	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || validateID(strings.TrimSuffix(name, ".json")) != nil {
			continue
		}
		r, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		out = append(out, r.Summary())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Close(context.Context) error { return nil }

func sortNewestFirst(runs []Summary) {
	slices.SortFunc(runs, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*FileStore)(nil)
