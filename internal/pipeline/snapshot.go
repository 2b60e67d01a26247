package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobpulse/internal/analytics"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

// TrendingSource computes trending skills.
type TrendingSource interface {
	Trending(ctx context.Context, q analytics.TrendingQuery) ([]analytics.SkillTrend, error)
}

// TrendingSaver persists trending rows for a period and day.
type TrendingSaver interface {
	SaveTrendingSnapshot(ctx context.Context, period string, date time.Time, rows []warehouse.TrendRow) error
}

// TrendingSnapshotter saves today's trending skills after each load.
type TrendingSnapshotter struct {
	engine TrendingSource
	store  TrendingSaver
	window time.Duration
	limit  int
	now    func() time.Time
}

// NewTrendingSnapshotter snapshots the top limit skills over window.
func NewTrendingSnapshotter(engine TrendingSource, store TrendingSaver, window time.Duration, limit int) *TrendingSnapshotter {
	return &TrendingSnapshotter{engine: engine, store: store, window: window, limit: limit, now: time.Now}
}

func (t *TrendingSnapshotter) Snapshot(ctx context.Context) error {
	trends, err := t.engine.Trending(ctx, analytics.TrendingQuery{
		Window: t.window,
		Limit:  t.limit,
		Fresh:  true,
	})
	if err != nil {
		return fmt.Errorf("computing trending skills: %w", err)
	}
	rows := make([]warehouse.TrendRow, len(trends))
	for i, tr := range trends {
		rows[i] = warehouse.TrendRow{Skill: tr.Skill, JobCount: tr.JobCount, GrowthRate: tr.GrowthRate}
	}
	return t.store.SaveTrendingSnapshot(ctx, analytics.PeriodLabel(t.window), t.now(), rows)
}
