package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Stager appends postings to a source's staging file.
type Stager interface {
	Append(source string, postings []model.RawPosting) error
}

// Limits bound a single connector run. Zero MaxItems means unlimited.
type Limits struct {
	MaxPages int
	MaxItems int
}

// Connector owns one incremental ingestion run for a single source:
// checkpoint → fetch pages → filter → skip covered → stage → advance checkpoint.
type Connector struct {
	Name        string
	source      model.Source
	filter      model.PostingFilter
	checkpoints model.CheckpointStore
	stager      Stager
	limits      Limits
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a connector wired with its dependencies. filter may be nil.
func New(
	source model.Source,
	filter model.PostingFilter,
	checkpoints model.CheckpointStore,
	stager Stager,
	limits Limits,
	logger *slog.Logger,
) *Connector {
	if limits.MaxPages <= 0 {
		limits.MaxPages = 1
	}
	return &Connector{
		Name:        source.Name(),
		source:      source,
		filter:      filter,
		checkpoints: checkpoints,
		stager:      stager,
		limits:      limits,
		logger:      logger,
		now:         time.Now,
	}
}

// Run fetches new postings and stages them. Postings are buffered until
// every page has been fetched, so a failed run stages nothing and leaves the
// checkpoint where it was.
func (c *Connector) Run(ctx context.Context) (model.SourceStats, error) {
	stats := model.SourceStats{Source: c.Name}

	cp, err := c.checkpoints.Get(ctx, c.Name)
	if err != nil {
		return stats, c.fail(&stats, model.KindInternal, fmt.Errorf("reading checkpoint: %w", err))
	}

	var fresh []model.RawPosting
	seen := make(map[string]bool)
	full := false

	for page := 1; page <= c.limits.MaxPages && !full; page++ {
		if err := ctx.Err(); err != nil {
			return stats, c.fail(&stats, model.KindTransientFetch, err)
		}

		p, err := c.source.FetchPage(ctx, page)
		if err != nil {
			return stats, c.fail(&stats, model.KindTransientFetch, fmt.Errorf("page %d: %w", page, err))
		}
		stats.Pages++
		stats.Fetched += len(p.Postings)

		for _, posting := range p.Postings {
			if c.filter != nil && !c.filter.Match(posting) {
				stats.Filtered++
				continue
			}
			if cp.Covers(posting) || seen[posting.ExternalID] {
				stats.Skipped++
				continue
			}
			seen[posting.ExternalID] = true
			fresh = append(fresh, posting)
			if c.limits.MaxItems > 0 && len(fresh) >= c.limits.MaxItems {
				full = true
				break
			}
		}

		if !p.HasMore || len(p.Postings) == 0 {
			break
		}
	}

	if len(fresh) > 0 {
		if err := c.stager.Append(c.Name, fresh); err != nil {
			return stats, c.fail(&stats, model.KindInternal, fmt.Errorf("staging: %w", err))
		}
		stats.Staged = len(fresh)

		next := cp.Advance(fresh, c.now().UTC())
		if err := c.checkpoints.Put(ctx, next); err != nil {
			return stats, c.fail(&stats, model.KindInternal, fmt.Errorf("saving checkpoint: %w", err))
		}
	}

	c.logger.Info("source ingested",
		"source", c.Name,
		"pages", stats.Pages,
		"fetched", stats.Fetched,
		"filtered", stats.Filtered,
		"skipped", stats.Skipped,
		"staged", stats.Staged,
	)
	return stats, nil
}

// fail classifies err as kind unless the source already returned a
// StageError, which is passed through with its own kind.
func (c *Connector) fail(stats *model.SourceStats, kind model.ErrorKind, err error) error {
	var se *model.StageError
	if !errors.As(err, &se) {
		se = model.NewStageError(kind, "connector", c.Name, err)
	}
	stats.Error = se.Error()
	c.logger.Error("source ingestion failed", "source", c.Name, "kind", se.Kind, "error", err)
	return se
}
