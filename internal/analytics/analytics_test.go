package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

type fakeFacts struct {
	facts []model.JobFact
	calls int
}

func (f *fakeFacts) Facts(_ context.Context, filter warehouse.FactFilter) ([]model.JobFact, error) {
	f.calls++
	var out []model.JobFact
	for _, fact := range f.facts {
		if !filter.Since.IsZero() && fact.ActivityDate.Before(filter.Since) {
			continue
		}
		out = append(out, fact)
	}
	return out, nil
}

func fact(id int64, daysAgo int, skills ...string) model.JobFact {
	return model.JobFact{
		JobID:        id,
		Source:       "remoteok",
		ActivityDate: now.AddDate(0, 0, -daysAgo),
		Skills:       skills,
		Location:     model.Location{City: "Berlin", Country: "Germany"},
	}
}

func newEngine(facts ...model.JobFact) (*Engine, *fakeFacts) {
	src := &fakeFacts{facts: facts}
	return NewEngine(src, nil, discardLogger(), WithClock(func() time.Time { return now })), src
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTrendingCountsAndGrowth(t *testing.T) {
	e, _ := newEngine(
		fact(1, 1, "Go"), fact(2, 2, "Go", "Python"), fact(3, 3, "Go"),
		fact(4, 20, "Go", "Rust"),
		fact(5, 45, "Go"), // outside the window
	)
	got, err := e.Trending(context.Background(), TrendingQuery{Window: 30 * 24 * time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	want := []SkillTrend{
		{Skill: "Go", JobCount: 4, GrowthRate: 2},
		{Skill: "Python", JobCount: 1, GrowthRate: 0},
		{Skill: "Rust", JobCount: 1, GrowthRate: -1},
	}
	if len(got) != len(want) {
		t.Fatalf("Trending = %+v", got)
	}
	for i := range want {
		if got[i].Skill != want[i].Skill || got[i].JobCount != want[i].JobCount || !near(got[i].GrowthRate, want[i].GrowthRate) {
			t.Errorf("Trending[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTrendingRegionAndLimit(t *testing.T) {
	remote := fact(2, 1, "Rust")
	remote.Location = model.Location{IsRemote: true}
	e, _ := newEngine(fact(1, 1, "Go", "Docker"), remote)

	got, err := e.Trending(context.Background(), TrendingQuery{Window: 30 * 24 * time.Hour, Region: "remote"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Skill != "Rust" {
		t.Errorf("remote trending = %+v", got)
	}

	got, _ = e.Trending(context.Background(), TrendingQuery{Window: 30 * 24 * time.Hour, Region: "germany", Limit: 1})
	if len(got) != 1 || got[0].Skill != "Docker" {
		t.Errorf("limited trending = %+v", got)
	}
}

func TestTrendingEndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := warehouse.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "wh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	scraped := now.Add(-2 * time.Hour)
	raws := []model.RawPosting{
		{Source: "remoteok", ExternalID: "1", Title: "Backend Engineer", Description: "Go services", ScrapedDate: scraped},
		{Source: "remoteok", ExternalID: "2", Title: "Platform Engineer", Description: "We write Go", ScrapedDate: scraped.Add(-24 * time.Hour)},
		{Source: "remoteok", ExternalID: "3", Title: "Systems Engineer", Description: "Go and Rust", ScrapedDate: scraped.Add(-48 * time.Hour)},
	}
	res := normalize.New(normalize.DefaultVocabulary(), false, nil, discardLogger()).NormalizeAll(ctx, raws)
	if len(res.Jobs) != 3 {
		t.Fatalf("normalized %d jobs", len(res.Jobs))
	}
	if stats := warehouse.NewLoader(store, 10, discardLogger()).Load(ctx, res.Jobs); stats.Loaded != 3 {
		t.Fatalf("load stats = %+v", stats)
	}

	e := NewEngine(store, nil, discardLogger(), WithClock(func() time.Time { return now }))
	got, err := e.Trending(ctx, TrendingQuery{Window: 7 * 24 * time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Skill != "Go" || got[0].JobCount != 3 || got[1].Skill != "Rust" || got[1].JobCount != 1 {
		t.Errorf("Trending = %+v, want Go:3 Rust:1", got)
	}
}

func TestSalaryInsightsByCurrency(t *testing.T) {
	usd := fact(1, 1, "Go")
	usd.Salary = model.Salary{Min: ptr(100), Max: ptr(140), Currency: "USD", Period: "year"}
	usd2 := fact(2, 2, "Go")
	usd2.Salary = model.Salary{Min: ptr(80), Max: ptr(100), Currency: "USD", Period: "year"}
	eur := fact(3, 3, "Go")
	eur.Salary = model.Salary{Min: ptr(60), Max: ptr(60), Currency: "EUR", Period: "year"}
	none := fact(4, 3, "Go")

	e, _ := newEngine(usd, usd2, eur, none)
	got, err := e.SalaryInsights(context.Background(), SalaryQuery{Window: 30 * 24 * time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("SalaryInsights = %+v", got)
	}
	g := got[0]
	if g.Skill != "Go" || g.Currency != "USD" || g.JobCount != 2 || g.Min != 80 || g.Max != 140 || !near(g.Avg, 105) {
		t.Errorf("USD group = %+v", g)
	}
	if got[1].Currency != "EUR" || got[1].Avg != 60 {
		t.Errorf("EUR group = %+v", got[1])
	}

	byLoc, err := e.SalaryInsights(context.Background(), SalaryQuery{GroupBy: GroupByLocation, Skill: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byLoc) != 2 || byLoc[0].Location != "Berlin, Germany" || byLoc[0].Skill != "" {
		t.Errorf("by location = %+v", byLoc)
	}

	if _, err := e.SalaryInsights(context.Background(), SalaryQuery{GroupBy: "title"}); err == nil {
		t.Error("expected error for unknown grouping")
	}
}

func ptr(v float64) *float64 { return &v }

func TestJobGrowthWeeklyBuckets(t *testing.T) {
	// now is Tuesday 2026-06-30; its week starts Monday 2026-06-29.
	e, _ := newEngine(fact(1, 0), fact(2, 1), fact(3, 15, "Go"))
	got, err := e.JobGrowth(context.Background(), GrowthQuery{Window: 30 * 24 * time.Hour, Interval: IntervalWeek})
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{
		{Date: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), Value: 1},
		{Date: time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC), Value: 0},
		{Date: time.Date(2026, 6, 29, 0, 0, 0, 0, time.UTC), Value: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("JobGrowth = %+v", got)
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Value != want[i].Value {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	skillOnly, _ := e.JobGrowth(context.Background(), GrowthQuery{Interval: IntervalMonth, Skill: "Go"})
	if len(skillOnly) != 1 || skillOnly[0].Value != 1 || skillOnly[0].Date.Day() != 1 {
		t.Errorf("monthly Go growth = %+v", skillOnly)
	}
}

func TestForecastInsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		facts []model.JobFact
	}{
		{"no history", nil},
		{"single day", []model.JobFact{fact(1, 3, "Go"), fact(2, 3, "Go")}},
		{"other skill only", []model.JobFact{fact(1, 3, "Rust"), fact(2, 4, "Rust")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(tt.facts...)
			got, err := e.Forecast(context.Background(), ForecastQuery{Skill: "Go", Horizon: 7})
			if err != nil {
				t.Fatalf("Forecast: %v", err)
			}
			if !got.Insufficient || len(got.Points) != 0 || got.Reason == "" {
				t.Errorf("expected insufficient-data result, got %+v", got)
			}
		})
	}
}

func TestForecastLinearTrend(t *testing.T) {
	// 1, 2, 3 jobs on the last three days.
	var facts []model.JobFact
	id := int64(0)
	for daysAgo, n := range map[int]int{2: 1, 1: 2, 0: 3} {
		for i := 0; i < n; i++ {
			id++
			facts = append(facts, fact(id, daysAgo, "Go"))
		}
	}
	src := &fakeFacts{facts: facts}
	e := NewEngine(src, LinearForecaster{}, discardLogger(), WithClock(func() time.Time { return now }))

	got, err := e.Forecast(context.Background(), ForecastQuery{Skill: "go", Horizon: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got.Insufficient || got.Model != "linear" || len(got.Points) != 2 {
		t.Fatalf("Forecast = %+v", got)
	}
	if !near(got.Points[0].Yhat, 4) || !near(got.Points[1].Yhat, 5) {
		t.Errorf("yhat = %v, %v; want 4, 5", got.Points[0].Yhat, got.Points[1].Yhat)
	}
	if !got.Points[0].Date.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first forecast date = %v", got.Points[0].Date)
	}
	for _, p := range got.Points {
		if p.YhatLower > p.Yhat || p.YhatUpper < p.Yhat || p.YhatLower < 0 {
			t.Errorf("bad bounds %+v", p)
		}
	}
}

func TestSeasonalForecasterWeeklyPattern(t *testing.T) {
	series := make([]float64, 21)
	for i := range series {
		series[i] = 2
		if i%7 == 0 {
			series[i] = 7
		}
	}
	est, err := SeasonalForecaster{Season: 7}.Fit(series, 7)
	if err != nil {
		t.Fatal(err)
	}
	if est[0].Yhat < est[1].Yhat+3 {
		t.Errorf("expected a weekly peak on day 21: %v vs %v", est[0].Yhat, est[1].Yhat)
	}
	for _, e := range est {
		if e.Lower < 0 {
			t.Errorf("lower bound below zero: %+v", e)
		}
	}
}

func TestSeasonalForecasterShortHistoryFallsBack(t *testing.T) {
	series := []float64{1, 2, 3, 4}
	seasonal, err := SeasonalForecaster{Season: 7}.Fit(series, 3)
	if err != nil {
		t.Fatal(err)
	}
	linear, _ := LinearForecaster{}.Fit(series, 3)
	for i := range linear {
		if !near(seasonal[i].Yhat, linear[i].Yhat) {
			t.Errorf("step %d: seasonal %v != linear %v", i, seasonal[i].Yhat, linear[i].Yhat)
		}
	}
	if _, err := (LinearForecaster{}).Fit([]float64{3}, 1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCorrelationSymmetricAndZeroForDisjoint(t *testing.T) {
	jobs := [][]string{
		{"Go", "Docker", "Kubernetes"},
		{"Go", "Docker"},
		{"Python", "Django"},
		{"Go", "Kubernetes"},
		{"Python"},
	}
	c := correlate(jobs, 10)

	for i := range c.Skills {
		if c.Matrix[i][i] != 1 {
			t.Errorf("diagonal %s = %v", c.Skills[i], c.Matrix[i][i])
		}
		for j := range c.Skills {
			if c.Matrix[i][j] != c.Matrix[j][i] {
				t.Errorf("asymmetric %s/%s", c.Skills[i], c.Skills[j])
			}
			if c.Strength(c.Skills[i], c.Skills[j]) != c.Strength(c.Skills[j], c.Skills[i]) {
				t.Errorf("Strength asymmetric %s/%s", c.Skills[i], c.Skills[j])
			}
		}
	}
	if got := c.Strength("Go", "Python"); got != 0 {
		t.Errorf("Go/Python = %v, want 0", got)
	}
	// Go in 3 jobs, Docker in 2, together in 2: 2/sqrt(6).
	if got := c.Strength("Docker", "Go"); !near(got, 2/math.Sqrt(6)) {
		t.Errorf("Go/Docker = %v", got)
	}
	if n := len(c.Pairs); n != 10 {
		t.Errorf("pairs = %d, want all 10 including zero-strength ones", n)
	}
	if c.Pairs[0].Strength < c.Pairs[len(c.Pairs)-1].Strength {
		t.Error("pairs not ranked by strength")
	}
}

func TestCorrelationTopN(t *testing.T) {
	c := correlate([][]string{{"Go", "Rust"}, {"Go"}, {"Java"}}, 2)
	if len(c.Skills) != 2 || c.Skills[0] != "Go" {
		t.Errorf("skills = %v", c.Skills)
	}
	if len(c.Pairs) != 1 {
		t.Errorf("pairs = %+v", c.Pairs)
	}
}

func TestEngineCachesResults(t *testing.T) {
	src := &fakeFacts{facts: []model.JobFact{fact(1, 1, "Go")}}
	e := NewEngine(src, nil, discardLogger(),
		WithClock(func() time.Time { return now }),
		WithCache(NewMemoryCache(), time.Minute))
	q := TrendingQuery{Window: 30 * 24 * time.Hour}

	first, _ := e.Trending(context.Background(), q)
	second, _ := e.Trending(context.Background(), q)
	if src.calls != 1 {
		t.Errorf("fact source called %d times, want 1", src.calls)
	}
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("cached result %+v != %+v", second, first)
	}

	q.Fresh = true
	e.Trending(context.Background(), q)
	if src.calls != 2 {
		t.Errorf("fresh query should bypass the cache, calls = %d", src.calls)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	clock := now
	c.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []string{"a"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got []string
	if err := c.Get(ctx, "k", &got); err != nil || len(got) != 1 {
		t.Fatalf("Get = %v, %v", got, err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after expiry, got %v", err)
	}
}

func TestLocationLabel(t *testing.T) {
	tests := []struct {
		loc  model.Location
		want string
	}{
		{model.Location{IsRemote: true}, "Remote"},
		{model.Location{Country: "United States", IsRemote: true}, "Remote (United States)"},
		{model.Location{City: "Austin", State: "Texas", Country: "United States"}, "Austin, Texas, United States"},
		{model.UnknownLocation, "Unknown"},
		{model.Location{}, "Unknown"},
	}
	for _, tt := range tests {
		if got := LocationLabel(tt.loc); got != tt.want {
			t.Errorf("LocationLabel(%+v) = %q, want %q", tt.loc, got, tt.want)
		}
	}
}
