package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
	"github.com/amishk599/jobpulse/internal/staging"
	"github.com/amishk599/jobpulse/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/amishk599/jobpulse/internal/pipeline")

// Ingester runs one source connector.
type Ingester interface {
	Run(ctx context.Context) (model.SourceStats, error)
}

// StagingReader reads staged postings from a byte offset.
type StagingReader interface {
	ReadFrom(source string, offset int64) (staging.Batch, error)
}

// Normalizer converts staged postings into canonical jobs.
type Normalizer interface {
	NormalizeAll(ctx context.Context, raws []model.RawPosting) normalize.Result
}

// Loader upserts canonical jobs into the warehouse.
type Loader interface {
	Load(ctx context.Context, jobs []model.CanonicalJob) model.LoadStats
}

// Snapshotter persists derived insights after a load.
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// Stages wires the pipeline's collaborators. Loader, Snapshotter, Reporter
// and Metrics may be nil.
type Stages struct {
	Ingesters   []Ingester
	Sources     []string // names whose staged data is normalized and loaded
	Staging     StagingReader
	Checkpoints model.CheckpointStore
	Normalizer  Normalizer
	Loader      Loader
	Snapshotter Snapshotter
	Reporter    model.Reporter
	Metrics     *metrics.Pipeline
}

// Options tune a pipeline run.
type Options struct {
	Parallelism int  // connectors run at once; 0 means all
	DryRun      bool // stage and normalize only; nothing reaches the warehouse
}

// Pipeline runs connectors, then normalizes and loads what they staged.
// A failure in one source or stage is recorded in the run report and never
// stops the others.
type Pipeline struct {
	stages Stages
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New returns a pipeline over the given stages.
func New(stages Stages, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{stages: stages, opts: opts, logger: logger, now: time.Now}
}

// Run executes one full pipeline run and returns its report. Cancelling ctx
// stops between records; whatever was staged or loaded stays valid.
func (p *Pipeline) Run(ctx context.Context) model.RunReport {
	rep := model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
		DryRun:    p.opts.DryRun,
	}
	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", rep.RunID),
		attribute.Bool("dry_run", rep.DryRun),
	))
	defer span.End()

	logger := p.logger.With("run_id", rep.RunID)
	logger.Info("pipeline run started", "sources", len(p.stages.Ingesters), "dry_run", rep.DryRun)

	rep.Sources = p.ingest(ctx)
	rep.Normalize, rep.Load = p.loadStaged(ctx, logger)

	if p.stages.Snapshotter != nil && !rep.DryRun && ctx.Err() == nil {
		if err := p.stages.Snapshotter.Snapshot(ctx); err != nil {
			rep.SnapshotError = err.Error()
			logger.Error("trending snapshot failed", "error", err)
		}
	}

	rep.FinishedAt = p.now().UTC()
	span.SetAttributes(
		attribute.Int("loaded", rep.Load.Loaded),
		attribute.Int("failed_sources", len(rep.FailedSources())),
	)

	if p.stages.Reporter != nil {
		if err := p.stages.Reporter.Report(ctx, rep); err != nil {
			logger.Error("delivering run report failed", "error", err)
		}
	}
	p.stages.Metrics.ObserveRun(rep)
	return rep
}

// ingest runs every connector, at most Parallelism at a time. Connector
// errors are captured in their stats.
func (p *Pipeline) ingest(ctx context.Context) []model.SourceStats {
	ctx, span := tracer.Start(ctx, "pipeline.ingest")
	defer span.End()

	stats := make([]model.SourceStats, len(p.stages.Ingesters))
	var g errgroup.Group
	if p.opts.Parallelism > 0 {
		g.SetLimit(p.opts.Parallelism)
	}
	for i, ing := range p.stages.Ingesters {
		g.Go(func() error {
			s, err := ing.Run(ctx)
			if err != nil && s.Error == "" {
				s.Error = err.Error()
			}
			stats[i] = s
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

// loadStaged normalizes and loads each source's newly staged lines. A
// source's loaded offset only moves once all of its batches are written, so
// failed batches are retried on the next run.
func (p *Pipeline) loadStaged(ctx context.Context, logger *slog.Logger) (model.NormalizeStats, model.LoadStats) {
	ctx, span := tracer.Start(ctx, "pipeline.load")
	defer span.End()

	var ns model.NormalizeStats
	var ls model.LoadStats
	for _, source := range p.stages.Sources {
		if ctx.Err() != nil {
			break
		}
		n, l, err := p.loadSource(ctx, source)
		ns.Read += n.Read
		ns.Normalized += n.Normalized
		ns.Rejected += n.Rejected
		ns.Degraded += n.Degraded
		ls.Batches += l.Batches
		ls.Loaded += l.Loaded
		ls.FailedBatches += l.FailedBatches
		ls.FailedRecords += l.FailedRecords
		if err != nil {
			logger.Error("loading staged postings failed", "source", source, "error", err)
			continue
		}
		logger.Info("source loaded",
			"source", source,
			"read", n.Read,
			"normalized", n.Normalized,
			"rejected", n.Rejected,
			"degraded", n.Degraded,
			"loaded", l.Loaded,
			"failed_batches", l.FailedBatches,
		)
	}
	return ns, ls
}

func (p *Pipeline) loadSource(ctx context.Context, source string) (model.NormalizeStats, model.LoadStats, error) {
	var ns model.NormalizeStats
	var ls model.LoadStats

	cp, err := p.stages.Checkpoints.Get(ctx, source)
	if err != nil {
		return ns, ls, fmt.Errorf("reading checkpoint: %w", err)
	}
	batch, err := p.stages.Staging.ReadFrom(source, cp.LoadedOffset)
	if err != nil {
		return ns, ls, fmt.Errorf("reading staged postings: %w", err)
	}
	if batch.NextOffset == cp.LoadedOffset {
		return ns, ls, nil
	}

	res := p.stages.Normalizer.NormalizeAll(ctx, batch.Postings)
	ns = model.NormalizeStats{
		Read:       len(batch.Postings) + batch.Malformed,
		Normalized: len(res.Jobs),
		Rejected:   res.Rejected + batch.Malformed,
		Degraded:   res.Degraded,
	}
	if ctx.Err() != nil {
		return ns, ls, ctx.Err()
	}

	if p.stages.Loader != nil && !p.opts.DryRun && len(res.Jobs) > 0 {
		ls = p.stages.Loader.Load(ctx, res.Jobs)
		if ls.FailedBatches > 0 || ctx.Err() != nil {
			return ns, ls, nil
		}
	}

	cp.LoadedOffset = batch.NextOffset
	if err := p.stages.Checkpoints.Put(ctx, cp); err != nil {
		return ns, ls, fmt.Errorf("saving loaded offset: %w", err)
	}
	return ns, ls, nil
}
