package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
)

// CorrelationQuery selects a skill co-occurrence analysis.
type CorrelationQuery struct {
	Window time.Duration
	Region string
	TopN   int // most frequent skills considered; 0 means 20
}

// SkillPair is the co-occurrence strength of two skills. A is ordered before B.
type SkillPair struct {
	A             string  `json:"skill_1"`
	B             string  `json:"skill_2"`
	CoOccurrences int     `json:"co_occurrences"`
	Strength      float64 `json:"strength"`
}

// Correlation holds the symmetric strength matrix over Skills and every
// pair ranked by strength. Pairs that never co-occur are kept with 0.
type Correlation struct {
	Skills []string    `json:"skills"`
	Matrix [][]float64 `json:"matrix"`
	Pairs  []SkillPair `json:"pairs"`
}

// Strength returns the coefficient for a and b, or 0 if either is absent.
func (c Correlation) Strength(a, b string) float64 {
	i, j := -1, -1
	for k, s := range c.Skills {
		if s == a {
			i = k
		}
		if s == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0
	}
	return c.Matrix[i][j]
}

// Correlate measures how strongly the top skills co-occur on jobs. The
// strength of two skills is the cosine similarity (Ochiai coefficient) of
// their binary job vectors: co-occurrences / sqrt(jobsA * jobsB).
func (e *Engine) Correlate(ctx context.Context, q CorrelationQuery) (Correlation, error) {
	if q.TopN <= 0 {
		q.TopN = 20
	}
	attrs := []attribute.KeyValue{
		attribute.String("region", q.Region),
		attribute.Int("top_n", q.TopN),
	}
	return traced(ctx, "Correlate", attrs, func(ctx context.Context) (Correlation, error) {
		key := cacheKey("correlate", q.Window, q.Region, q.TopN)
		return cached(ctx, e, key, false, func() (Correlation, error) {
			facts, err := e.load(ctx, q.Window, q.Region, "")
			if err != nil {
				return Correlation{}, err
			}
			jobs := make([][]string, len(facts))
			for i, f := range facts {
				jobs[i] = f.Skills
			}
			return correlate(jobs, q.TopN), nil
		})
	})
}

// correlate builds the co-occurrence analysis over per-job skill sets.
func correlate(jobs [][]string, topN int) Correlation {
	freq := make(map[string]int)
	for _, skills := range jobs {
		for _, s := range dedupe(skills) {
			freq[s]++
		}
	}
	skills := make([]string, 0, len(freq))
	for s := range freq {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool {
		if freq[skills[i]] != freq[skills[j]] {
			return freq[skills[i]] > freq[skills[j]]
		}
		return skills[i] < skills[j]
	})
	if len(skills) > topN {
		skills = skills[:topN]
	}

	col := make(map[string]int, len(skills))
	vectors := make([][]float64, len(skills))
	for i, s := range skills {
		col[s] = i
		vectors[i] = make([]float64, len(jobs))
	}
	for j, js := range jobs {
		for _, s := range js {
			if i, ok := col[s]; ok {
				vectors[i][j] = 1
			}
		}
	}

	n := len(skills)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	var pairs []SkillPair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			co := floats.Dot(vectors[i], vectors[j])
			strength := 0.0
			if co > 0 {
				strength = co / math.Sqrt(float64(freq[skills[i]])*float64(freq[skills[j]]))
			}
			matrix[i][j] = strength
			matrix[j][i] = strength

			a, b := skills[i], skills[j]
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, SkillPair{A: a, B: b, CoOccurrences: int(co), Strength: strength})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Strength != pairs[j].Strength {
			return pairs[i].Strength > pairs[j].Strength
		}
		if pairs[i].CoOccurrences != pairs[j].CoOccurrences {
			return pairs[i].CoOccurrences > pairs[j].CoOccurrences
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return Correlation{Skills: skills, Matrix: matrix, Pairs: pairs}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
