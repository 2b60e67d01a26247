package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amishk599/jobpulse/internal/model"
)

// CheckpointStore keeps per-source checkpoints in the ingestion_checkpoints
// table, next to the data they describe.
type CheckpointStore struct {
	s *Store
}

// Checkpoints returns a checkpoint store backed by s.
func (s *Store) Checkpoints() *CheckpointStore {
	return &CheckpointStore{s: s}
}

// Get returns the checkpoint for source, or an empty one if none was saved.
func (c *CheckpointStore) Get(ctx context.Context, source string) (model.Checkpoint, error) {
	var payload string
	err := c.s.queryRow(ctx, c.s.db, `SELECT payload FROM ingestion_checkpoints WHERE source = ?`, source).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Checkpoint{Source: source}, nil
	}
	if err != nil {
		return model.Checkpoint{}, fmt.Errorf("reading checkpoint %s: %w", source, err)
	}

	var cp model.Checkpoint
	if err := json.Unmarshal([]byte(payload), &cp); err != nil {
		return model.Checkpoint{}, fmt.Errorf("decoding checkpoint %s: %w", source, err)
	}
	cp.Source = source
	return cp, nil
}

// Put replaces the checkpoint for cp.Source.
func (c *CheckpointStore) Put(ctx context.Context, cp model.Checkpoint) error {
	if cp.Source == "" {
		return fmt.Errorf("checkpoint has no source")
	}
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", cp.Source, err)
	}
	_, err = c.s.exec(ctx, c.s.db, `
		INSERT INTO ingestion_checkpoints (source, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		cp.Source, string(payload), c.s.now().UTC())
	if err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", cp.Source, err)
	}
	return nil
}
