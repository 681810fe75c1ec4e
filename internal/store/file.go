// Package store persists ledger snapshots as JSON documents on disk.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trogers1052/paper-trader/internal/models"
)

// FileStore keeps one JSON file per agent under dir
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid agent name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save writes st atomically, replacing any previous snapshot
func (s *FileStore) Save(ctx context.Context, st models.LedgerState) error {
	path, err := s.path(st.Name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+st.Name+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the snapshot saved for name. models.ErrNoState is returned
// when there is none.
func (s *FileStore) Load(ctx context.Context, name string) (models.LedgerState, error) {
	path, err := s.path(name)
	if err != nil {
		return models.LedgerState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.LedgerState{}, models.ErrNoState
		}
		return models.LedgerState{}, err
	}
	if len(data) == 0 {
		return models.LedgerState{}, models.ErrNoState
	}

	var st models.LedgerState
	if err := json.Unmarshal(data, &st); err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to decode state for %s: %w", name, err)
	}
	if st.Name == "" {
		st.Name = name
	}
	return st, nil
}
