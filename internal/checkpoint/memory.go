package checkpoint

import (
	"context"
	"sync"

	"github.com/amishk599/jobpulse/internal/model"
)

// MemoryStore holds checkpoints in memory only. Dry runs seed it from the
// real store so nothing they do is persisted.
type MemoryStore struct {
	mu  sync.Mutex
	cps map[string]model.Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cps: make(map[string]model.Checkpoint)}
}

// Seed copies the current checkpoints for sources out of from.
func (s *MemoryStore) Seed(ctx context.Context, from model.CheckpointStore, sources []string) error {
	for _, name := range sources {
		cp, err := from.Get(ctx, name)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, source string) (model.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cp, ok := s.cps[source]; ok {
		return cp, nil
	}
	return model.Checkpoint{Source: source}, nil
}

func (s *MemoryStore) Put(_ context.Context, cp model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cps[cp.Source] = cp
	return nil
}
