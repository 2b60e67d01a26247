package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) model.RunReport
}

// Scheduler owns the main loop: it runs the pipeline, waits for the
// interval, and runs it again. Runs never overlap.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then waits interval after
// each run finishes. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rep := s.runner.Run(ctx)
	next := time.Now().Add(s.interval)
	if !rep.Healthy() {
		s.logger.Warn("run finished with failures",
			"run_id", rep.RunID,
			"failed_sources", rep.FailedSources(),
			"next_run", next.Format(time.RFC3339),
		)
		return
	}
	s.logger.Info("run finished",
		"run_id", rep.RunID,
		"duration", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond).String(),
		"next_run", next.Format(time.RFC3339),
	)
}
