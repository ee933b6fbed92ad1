// Package file persists project state as a JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Store reads and writes one project's state file. Writes go to a temporary
// file in the same directory followed by a rename, so a crash never leaves a
// half-written state behind.
type Store struct {
	path string
	log  *zap.SugaredLogger
}

// New binds a Store to its state file path.
func New(path string, log *zap.SugaredLogger) *Store {
	return &Store{path: path, log: log.Named("state")}
}

// Load implements repository.StateStore. A missing file yields the empty
// state; an unreadable one fails with ErrStateCorrupt so the operator can
// quiesce, remove the file and restart.
func (s *Store) Load(_ context.Context) (entities.ProjectState, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Infow("no state file yet, starting empty", "path", s.path)
		return entities.ProjectState{}, nil
	}
	if err != nil {
		return entities.ProjectState{}, fmt.Errorf("read state file %s: %w", s.path, err)
	}
	var state entities.ProjectState
	if err := json.Unmarshal(raw, &state); err != nil {
		return entities.ProjectState{}, fmt.Errorf("%w: %s: %v", entities.ErrStateCorrupt, s.path, err)
	}
	return state, nil
}

// Save implements repository.StateStore.
func (s *Store) Save(_ context.Context, state entities.ProjectState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
