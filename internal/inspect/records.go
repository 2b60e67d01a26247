package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
)

// Normalizer converts one staged posting.
type Normalizer interface {
	Normalize(ctx context.Context, raw model.RawPosting) (normalize.Outcome, error)
}

// Record pairs a staged posting with what normalization made of it.
type Record struct {
	Raw      model.RawPosting
	Job      model.CanonicalJob // zero when rejected
	Degraded []string
	Err      error
}

// Rejected reports whether normalization refused the posting.
func (r Record) Rejected() bool { return r.Err != nil }

// NeedsAttention reports whether the record was rejected or lost a field.
func (r Record) NeedsAttention() bool { return r.Err != nil || len(r.Degraded) > 0 }

// BuildRecords normalizes the most recent limit postings, newest first.
// A limit of 0 keeps them all.
func BuildRecords(ctx context.Context, n Normalizer, raws []model.RawPosting, limit int) ([]Record, error) {
	if limit > 0 && len(raws) > limit {
		raws = raws[len(raws)-limit:]
	}
	out := make([]Record, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		raw := raws[i]
		outcome, err := n.Normalize(ctx, raw)
		out = append(out, Record{Raw: raw, Job: outcome.Job, Degraded: outcome.Degraded, Err: err})
	}
	return out, nil
}

// Attention returns the records that were rejected or degraded.
func Attention(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.NeedsAttention() {
			out = append(out, r)
		}
	}
	return out
}

func fmtSalary(s model.Salary) string {
	if !s.Known() {
		return ""
	}
	amount := func(v *float64) string {
		if v == nil {
			return "?"
		}
		return humanize.Comma(int64(*v))
	}
	var b strings.Builder
	if s.Currency != "" {
		b.WriteString(s.Currency + " ")
	}
	switch {
	case s.Min != nil && s.Max != nil && *s.Min != *s.Max:
		fmt.Fprintf(&b, "%s - %s", amount(s.Min), amount(s.Max))
	case s.Min != nil:
		b.WriteString(amount(s.Min))
	default:
		b.WriteString(amount(s.Max))
	}
	if s.Period != "" {
		b.WriteString(" / " + s.Period)
	}
	return b.String()
}

func skillNames(skills []model.Skill) string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}
