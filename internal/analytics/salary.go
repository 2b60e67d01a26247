package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/amishk599/jobpulse/internal/model"
)

// Salary grouping keys.
const (
	GroupBySkill         = "skill"
	GroupByLocation      = "location"
	GroupBySkillLocation = "skill_location"
)

// SalaryQuery selects salary aggregates.
type SalaryQuery struct {
	Window  time.Duration
	Region  string
	Skill   string // restrict to jobs requiring this skill
	GroupBy string // skill, location or skill_location; default skill
}

// SalaryInsight aggregates the salaries of one group. Groups never mix
// currencies or pay periods.
type SalaryInsight struct {
	Skill    string  `json:"skill,omitempty"`
	Location string  `json:"location,omitempty"`
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
	JobCount int     `json:"job_count"`
	Min      float64 `json:"min_salary"`
	Avg      float64 `json:"avg_salary"` // mean of each job's range midpoint
	Max      float64 `json:"max_salary"`
}

type salaryGroup struct {
	skill, location, currency, period string
}

// SalaryInsights aggregates min/avg/max salary per group. Jobs without both
// salary bounds are excluded. Results are ordered by job count.
func (e *Engine) SalaryInsights(ctx context.Context, q SalaryQuery) ([]SalaryInsight, error) {
	if q.GroupBy == "" {
		q.GroupBy = GroupBySkill
	}
	switch q.GroupBy {
	case GroupBySkill, GroupByLocation, GroupBySkillLocation:
	default:
		return nil, fmt.Errorf("unknown salary grouping %q", q.GroupBy)
	}

	attrs := []attribute.KeyValue{
		attribute.String("group_by", q.GroupBy),
		attribute.String("skill", q.Skill),
		attribute.String("region", q.Region),
	}
	return traced(ctx, "SalaryInsights", attrs, func(ctx context.Context) ([]SalaryInsight, error) {
		key := cacheKey("salaries", q.Window, q.Region, q.Skill, q.GroupBy)
		return cached(ctx, e, key, false, func() ([]SalaryInsight, error) {
			return e.salaryInsights(ctx, q)
		})
	})
}

func (e *Engine) salaryInsights(ctx context.Context, q SalaryQuery) ([]SalaryInsight, error) {
	facts, err := e.load(ctx, q.Window, q.Region, q.Skill)
	if err != nil {
		return nil, err
	}

	type acc struct {
		mins, mids, maxs []float64
	}
	groups := make(map[salaryGroup]*acc)
	add := func(g salaryGroup, s model.Salary) {
		a := groups[g]
		if a == nil {
			a = &acc{}
			groups[g] = a
		}
		a.mins = append(a.mins, *s.Min)
		a.maxs = append(a.maxs, *s.Max)
		a.mids = append(a.mids, (*s.Min+*s.Max)/2)
	}

	for _, f := range facts {
		if f.Salary.Min == nil || f.Salary.Max == nil {
			continue
		}
		base := salaryGroup{currency: f.Salary.Currency, period: f.Salary.Period}
		if q.GroupBy == GroupByLocation {
			base.location = LocationLabel(f.Location)
			add(base, f.Salary)
			continue
		}
		if q.GroupBy == GroupBySkillLocation {
			base.location = LocationLabel(f.Location)
		}
		for _, s := range f.Skills {
			if q.Skill != "" && !strings.EqualFold(s, q.Skill) {
				continue
			}
			g := base
			g.skill = s
			add(g, f.Salary)
		}
	}

	out := make([]SalaryInsight, 0, len(groups))
	for g, a := range groups {
		out = append(out, SalaryInsight{
			Skill:    g.skill,
			Location: g.location,
			Currency: g.currency,
			Period:   g.period,
			JobCount: len(a.mids),
			Min:      floats.Min(a.mins),
			Avg:      stat.Mean(a.mids, nil),
			Max:      floats.Max(a.maxs),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.JobCount != b.JobCount {
			return a.JobCount > b.JobCount
		}
		if a.Skill != b.Skill {
			return a.Skill < b.Skill
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Period < b.Period
	})
	return out, nil
}

// LocationLabel renders a location for display and grouping.
func LocationLabel(l model.Location) string {
	var parts []string
	for _, p := range []string{l.City, l.State, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	label := strings.Join(parts, ", ")
	switch {
	case l.IsRemote && label == "":
		return "Remote"
	case l.IsRemote:
		return "Remote (" + label + ")"
	case label == "":
		return "Unknown"
	}
	return label
}
