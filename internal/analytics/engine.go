package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

var tracer = otel.Tracer("github.com/amishk599/jobpulse/internal/analytics")

// FactSource supplies the flattened job facts analytics run on.
type FactSource interface {
	Facts(ctx context.Context, f warehouse.FactFilter) ([]model.JobFact, error)
}

// Engine computes insights on demand from warehouse facts. Results are
// cached per query when a cache is configured.
type Engine struct {
	facts      FactSource
	forecaster Forecaster
	cache      Cache
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCache caches query results in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.ttl = ttl
	}
}

// WithClock overrides the engine's notion of now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine reading from facts. A nil forecaster selects
// the linear one.
func NewEngine(facts FactSource, forecaster Forecaster, logger *slog.Logger, opts ...Option) *Engine {
	if forecaster == nil {
		forecaster = LinearForecaster{}
	}
	e := &Engine{
		facts:      facts,
		forecaster: forecaster,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// load reads the facts active in [now-window, now] that match region and,
// when non-empty, skill.
func (e *Engine) load(ctx context.Context, window time.Duration, region, skill string) ([]model.JobFact, error) {
	var f warehouse.FactFilter
	if window > 0 {
		f.Since = e.now().Add(-window)
	}
	facts, err := e.facts.Facts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("loading facts: %w", err)
	}

	r := filter.Region(region)
	out := facts[:0:0]
	for _, fact := range facts {
		if !r.Match(fact.Location) {
			continue
		}
		if skill != "" && !hasSkill(fact, skill) {
			continue
		}
		out = append(out, fact)
	}
	return out, nil
}

func hasSkill(f model.JobFact, skill string) bool {
	for _, s := range f.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// cached returns the value stored under key, or computes and stores it.
// Cache failures are logged and never fail the query.
func cached[T any](ctx context.Context, e *Engine, key string, fresh bool, compute func() (T, error)) (T, error) {
	if e.cache != nil && !fresh {
		var hit T
		err := e.cache.Get(ctx, key, &hit)
		if err == nil {
			return hit, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			e.logger.Warn("analytics cache read failed", "key", key, "error", err)
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if e.cache != nil {
		if err := e.cache.Set(ctx, key, v, e.ttl); err != nil {
			e.logger.Warn("analytics cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

// traced runs fn inside a span named op.
func traced[T any](ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "analytics."+op)
	defer span.End()
	span.SetAttributes(attrs...)

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func cacheKey(op string, parts ...any) string {
	var b strings.Builder
	b.WriteString("jobpulse:analytics:")
	b.WriteString(op)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return strings.ToLower(b.String())
}

// PeriodLabel renders a window as a whole number of days, e.g. "30d".
func PeriodLabel(window time.Duration) string {
	return fmt.Sprintf("%dd", int(window.Hours()/24))
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
