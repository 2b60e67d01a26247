package report

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure LogReporter implements model.Reporter.
var _ model.Reporter = (*LogReporter)(nil)

// LogReporter writes run reports to the given logger as structured messages.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter that logs each run via slog.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs one line per source and a run summary. It never fails.
func (r *LogReporter) Report(_ context.Context, rep model.RunReport) error {
	for _, s := range rep.Sources {
		args := []any{
			"run_id", rep.RunID,
			"source", s.Source,
			"fetched", s.Fetched,
			"staged", s.Staged,
			"skipped", s.Skipped,
			"filtered", s.Filtered,
		}
		if s.Error != "" {
			r.logger.Warn("source failed", append(args, "error", s.Error)...)
			continue
		}
		r.logger.Info("source report", args...)
	}

	args := []any{
		"run_id", rep.RunID,
		"dry_run", rep.DryRun,
		"duration", rep.FinishedAt.Sub(rep.StartedAt).String(),
		"normalized", rep.Normalize.Normalized,
		"rejected", rep.Normalize.Rejected,
		"degraded", rep.Normalize.Degraded,
		"loaded", rep.Load.Loaded,
		"failed_batches", rep.Load.FailedBatches,
	}
	if rep.SnapshotError != "" {
		args = append(args, "snapshot_error", rep.SnapshotError)
	}
	if rep.Healthy() {
		r.logger.Info("run complete", args...)
	} else {
		r.logger.Warn("run complete with failures", args...)
	}
	return nil
}
