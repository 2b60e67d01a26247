package analytics

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// TrendingQuery selects trending skills.
type TrendingQuery struct {
	Window time.Duration // trailing window ending now
	Region string
	Limit  int  // 0 returns every skill
	Fresh  bool // skip the cache read
}

// SkillTrend is one ranked skill.
type SkillTrend struct {
	Skill      string  `json:"skill"`
	JobCount   int     `json:"job_count"`
	GrowthRate float64 `json:"growth_rate"` // fractional change between window halves
}

// Trending counts distinct jobs per skill within the window, highest first.
// GrowthRate compares the recent half of the window with the earlier half
// and is 0 when the earlier half has no jobs.
func (e *Engine) Trending(ctx context.Context, q TrendingQuery) ([]SkillTrend, error) {
	attrs := []attribute.KeyValue{
		attribute.String("window", q.Window.String()),
		attribute.String("region", q.Region),
	}
	return traced(ctx, "Trending", attrs, func(ctx context.Context) ([]SkillTrend, error) {
		key := cacheKey("trending", q.Window, q.Region, q.Limit)
		return cached(ctx, e, key, q.Fresh, func() ([]SkillTrend, error) {
			return e.trending(ctx, q)
		})
	})
}

func (e *Engine) trending(ctx context.Context, q TrendingQuery) ([]SkillTrend, error) {
	facts, err := e.load(ctx, q.Window, q.Region, "")
	if err != nil {
		return nil, err
	}

	mid := e.now().Add(-q.Window / 2)
	type tally struct {
		total, recent, earlier int
	}
	counts := make(map[string]*tally)
	for _, f := range facts {
		recent := !f.ActivityDate.Before(mid)
		for _, s := range f.Skills {
			t := counts[s]
			if t == nil {
				t = &tally{}
				counts[s] = t
			}
			t.total++
			if recent {
				t.recent++
			} else {
				t.earlier++
			}
		}
	}

	out := make([]SkillTrend, 0, len(counts))
	for skill, t := range counts {
		st := SkillTrend{Skill: skill, JobCount: t.total}
		if q.Window > 0 && t.earlier > 0 {
			st.GrowthRate = float64(t.recent-t.earlier) / float64(t.earlier)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].Skill < out[j].Skill
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
