package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobpulse/internal/model"
)

// SendTest delivers a sample run report to verify the integration works.
func SendTest(ctx context.Context, r model.Reporter) error {
	finished := time.Now().UTC()
	return r.Report(ctx, model.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  finished.Add(-42 * time.Second),
		FinishedAt: finished,
		DryRun:     true,
		Sources: []model.SourceStats{
			{Source: "test", Pages: 1, Fetched: 3, Staged: 3},
		},
		Normalize: model.NormalizeStats{Read: 3, Normalized: 3},
		Load:      model.LoadStats{Batches: 1, Loaded: 3},
	})
}
