package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/amishk599/jobpulse/internal/model"
)

// FileStore keeps one JSON checkpoint file per source. Writes go to a temp
// file that is renamed into place, so a crash never leaves a torn checkpoint.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(source string) string {
	return filepath.Join(s.dir, source+".json")
}

// Get returns the stored checkpoint, or a zero checkpoint for a source that
// has never been ingested.
func (s *FileStore) Get(_ context.Context, source string) (model.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(source))
	if errors.Is(err, os.ErrNotExist) {
		return model.Checkpoint{Source: source}, nil
	}
	if err != nil {
		return model.Checkpoint{}, fmt.Errorf("reading checkpoint for %s: %w", source, err)
	}

	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return model.Checkpoint{}, fmt.Errorf("decoding checkpoint for %s: %w", source, err)
	}
	cp.Source = source
	return cp, nil
}

// Put atomically replaces the checkpoint for cp.Source.
func (s *FileStore) Put(_ context.Context, cp model.Checkpoint) error {
	if cp.Source == "" {
		return errors.New("checkpoint has no source")
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint for %s: %w", cp.Source, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, cp.Source+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing checkpoint for %s: %w", cp.Source, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing checkpoint for %s: %w", cp.Source, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing checkpoint for %s: %w", cp.Source, err)
	}
	if err := os.Rename(tmp.Name(), s.path(cp.Source)); err != nil {
		return fmt.Errorf("replacing checkpoint for %s: %w", cp.Source, err)
	}
	return nil
}
