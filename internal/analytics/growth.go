package analytics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Growth bucket widths.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
)

// Point is one value of a time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// GrowthQuery selects a job-count time series.
type GrowthQuery struct {
	Window   time.Duration
	Interval string // day, week or month; default week
	Region   string
	Skill    string
}

// JobGrowth buckets job counts by activity date into fixed intervals over the
// window. Empty buckets between the first and last are reported as zero.
func (e *Engine) JobGrowth(ctx context.Context, q GrowthQuery) ([]Point, error) {
	if q.Interval == "" {
		q.Interval = IntervalWeek
	}
	switch q.Interval {
	case IntervalDay, IntervalWeek, IntervalMonth:
	default:
		return nil, fmt.Errorf("unknown growth interval %q", q.Interval)
	}

	attrs := []attribute.KeyValue{
		attribute.String("interval", q.Interval),
		attribute.String("skill", q.Skill),
		attribute.String("region", q.Region),
	}
	return traced(ctx, "JobGrowth", attrs, func(ctx context.Context) ([]Point, error) {
		key := cacheKey("growth", q.Window, q.Interval, q.Region, q.Skill)
		return cached(ctx, e, key, false, func() ([]Point, error) {
			facts, err := e.load(ctx, q.Window, q.Region, q.Skill)
			if err != nil {
				return nil, err
			}
			dates := make([]time.Time, len(facts))
			for i, f := range facts {
				dates[i] = f.ActivityDate
			}
			return bucketize(dates, q.Interval), nil
		})
	})
}

// bucketize counts dates per interval and returns an ordered, gap-free
// series.
func bucketize(dates []time.Time, interval string) []Point {
	if len(dates) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	first, last := bucketStart(dates[0], interval), bucketStart(dates[0], interval)
	for _, d := range dates {
		b := bucketStart(d, interval)
		counts[b]++
		if b.Before(first) {
			first = b
		}
		if b.After(last) {
			last = b
		}
	}

	var out []Point
	for b := first; !b.After(last); b = nextBucket(b, interval) {
		out = append(out, Point{Date: b, Value: float64(counts[b])})
	}
	return out
}

// bucketStart truncates t to the start of its bucket in UTC. Weeks start on
// Monday.
func bucketStart(t time.Time, interval string) time.Time {
	d := dayStart(t)
	switch interval {
	case IntervalWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case IntervalMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func nextBucket(b time.Time, interval string) time.Time {
	switch interval {
	case IntervalWeek:
		return b.AddDate(0, 0, 7)
	case IntervalMonth:
		return b.AddDate(0, 1, 0)
	}
	return b.AddDate(0, 0, 1)
}
