package warehouse

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "warehouse.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func newTestLoader(s *Store, batchSize int) *Loader {
	return NewLoader(s, batchSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var scraped = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func canonical(id, title string, skills ...string) model.CanonicalJob {
	job := model.CanonicalJob{
		Source:      "remoteok",
		ExternalID:  id,
		Title:       title,
		Company:     model.Company{Name: "Acme, Inc.", NormalizedName: "acme"},
		Location:    model.Location{City: "Austin", State: "Texas", Country: "United States"},
		Description: "desc",
		URL:         "https://example.com/" + id,
		ScrapedDate: scraped,
	}
	for _, name := range skills {
		job.Skills = append(job.Skills, model.Skill{Name: name, Category: model.CategoryLanguage})
	}
	return job
}

func count(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestLoadTwiceKeepsOneRowPerJob(t *testing.T) {
	s := newTestStore(t)
	l := newTestLoader(s, 10)
	ctx := context.Background()

	first := canonical("1", "Go Engineer", "Go")
	first.Salary = model.Salary{Min: ptr(100.0), Max: ptr(120.0), Currency: "USD", Period: "year"}
	if stats := l.Load(ctx, []model.CanonicalJob{first}); stats.Loaded != 1 {
		t.Fatalf("first load stats = %+v", stats)
	}

	second := canonical("1", "Senior Go Engineer", "Go")
	second.Salary = model.Salary{Min: ptr(130.0), Max: ptr(150.0), Currency: "USD", Period: "year"}
	if stats := l.Load(ctx, []model.CanonicalJob{second}); stats.Loaded != 1 {
		t.Fatalf("second load stats = %+v", stats)
	}

	if n := count(t, s, "jobs"); n != 1 {
		t.Fatalf("jobs = %d, want 1", n)
	}
	var title string
	var minSal float64
	if err := s.db.QueryRow("SELECT title, salary_min FROM jobs").Scan(&title, &minSal); err != nil {
		t.Fatal(err)
	}
	if title != "Senior Go Engineer" || minSal != 130 {
		t.Errorf("row = %q %v, want latest values", title, minSal)
	}
	counts, err := s.JobCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["remoteok"] != 1 {
		t.Errorf("JobCounts = %v", counts)
	}
}

func TestLoadReplacesSkillLinks(t *testing.T) {
	s := newTestStore(t)
	l := newTestLoader(s, 10)
	ctx := context.Background()

	l.Load(ctx, []model.CanonicalJob{canonical("1", "Engineer", "Go", "Rust")})
	l.Load(ctx, []model.CanonicalJob{canonical("1", "Engineer", "Go", "Python")})

	facts, err := s.Facts(ctx, FactFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 {
		t.Fatalf("facts = %d, want 1", len(facts))
	}
	got := facts[0].Skills
	if len(got) != 2 || got[0] != "Go" || got[1] != "Python" {
		t.Errorf("skills = %v, want [Go Python]", got)
	}
	if n := count(t, s, "skills"); n != 3 {
		t.Errorf("skills rows = %d, want 3 (dimension rows are kept)", n)
	}
}

func TestLoadDeduplicatesDimensions(t *testing.T) {
	s := newTestStore(t)
	l := newTestLoader(s, 1)

	a := canonical("1", "Engineer", "Python")
	b := canonical("2", "Engineer", "python")
	b.Company.Name = "ACME Inc"
	c := canonical("3", "Engineer", "PYTHON")
	c.Company = model.Company{}
	c.Location = model.UnknownLocation

	stats := l.Load(context.Background(), []model.CanonicalJob{a, b, c})
	if stats.Loaded != 3 || stats.Batches != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if n := count(t, s, "skills"); n != 1 {
		t.Errorf("skills = %d, want 1", n)
	}
	if n := count(t, s, "companies"); n != 1 {
		t.Errorf("companies = %d, want 1", n)
	}
	if n := count(t, s, "locations"); n != 2 {
		t.Errorf("locations = %d, want 2", n)
	}
	var nullCompanies int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs WHERE company_id IS NULL").Scan(&nullCompanies); err != nil {
		t.Fatal(err)
	}
	if nullCompanies != 1 {
		t.Errorf("jobs without company = %d, want 1", nullCompanies)
	}
	var name string
	if err := s.db.QueryRow("SELECT skill_name FROM skills").Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Python" {
		t.Errorf("skill_name = %q, want first spelling", name)
	}
}

func TestLoadSkipsFailedBatch(t *testing.T) {
	s := newTestStore(t)
	l := newTestLoader(s, 2)
	var progress []int
	l.OnProgress(func(done, total int) { progress = append(progress, done) })

	bad := canonical("2", "", "Go")
	jobs := []model.CanonicalJob{
		canonical("1", "A", "Go"), bad,
		canonical("3", "C", "Go"), canonical("4", "D", "Go"),
	}
	stats := l.Load(context.Background(), jobs)

	if stats.Batches != 2 || stats.FailedBatches != 1 || stats.FailedRecords != 2 || stats.Loaded != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if n := count(t, s, "jobs"); n != 2 {
		t.Errorf("jobs = %d, want 2 (failed batch rolled back)", n)
	}
	if len(progress) != 2 || progress[1] != 4 {
		t.Errorf("progress = %v", progress)
	}
}

func TestLoadStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := newTestLoader(s, 1).Load(ctx, []model.CanonicalJob{canonical("1", "A")})
	if stats.Loaded != 0 || stats.Batches != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFactsFilterAndActivityDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := canonical("1", "A", "Go")
	old.PostedDate = ptr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	fresh := canonical("2", "B", "Rust")
	fresh.Location = model.Location{IsRemote: true}
	fresh.Salary = model.Salary{Min: ptr(50.0), Max: ptr(70.0), Currency: "EUR", Period: "hour"}
	other := canonical("3", "C", "Go")
	other.Source = "naukri"
	newTestLoader(s, 10).Load(ctx, []model.CanonicalJob{old, fresh, other})

	facts, err := s.Facts(ctx, FactFilter{Source: "remoteok", Since: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 {
		t.Fatalf("facts = %d, want 1", len(facts))
	}
	f := facts[0]
	if !f.ActivityDate.Equal(scraped) {
		t.Errorf("activity date = %v, want scraped date", f.ActivityDate)
	}
	if !f.Location.IsRemote || f.Salary.Currency != "EUR" || f.Salary.Min == nil || *f.Salary.Min != 50 {
		t.Errorf("fact = %+v", f)
	}

	all, err := s.Facts(ctx, FactFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || !all[0].ActivityDate.Equal(*old.PostedDate) {
		t.Errorf("all facts = %+v", all)
	}
}

func TestFactsWindowIsBoundInSQL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := canonical("1", "A", "Go")
	before.PostedDate = ptr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	inside := canonical("2", "B", "Rust", "Go")
	after := canonical("3", "C", "Kotlin")
	after.PostedDate = ptr(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	newTestLoader(s, 10).Load(ctx, []model.CanonicalJob{before, inside, after})

	f := FactFilter{
		Since: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	where, args := f.where()
	if !strings.Contains(where, "COALESCE(j.posted_date, j.scraped_date) >= ?") || len(args) != 2 {
		t.Errorf("where = %q, args = %v", where, args)
	}

	// Query the raw rows with the same clause: nothing outside the window
	// may come back from the database.
	var n int
	if err := s.queryRow(ctx, s.db, "SELECT COUNT(*) FROM jobs j"+where, args...).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows in window = %d, want 1", n)
	}

	facts, err := s.Facts(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 || facts[0].ActivityDate.Equal(*after.PostedDate) {
		t.Fatalf("facts = %+v", facts)
	}
	if got := strings.Join(facts[0].Skills, ","); got != "Go,Rust" {
		t.Errorf("skills = %q, want Go,Rust", got)
	}
}

func TestTrendingSnapshotOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestLoader(s, 10).Load(ctx, []model.CanonicalJob{canonical("1", "A", "Go", "Rust")})

	day := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	if err := s.SaveTrendingSnapshot(ctx, "30d", day, []TrendRow{{Skill: "go", JobCount: 1, GrowthRate: 0}}); err != nil {
		t.Fatal(err)
	}
	rows := []TrendRow{{Skill: "Go", JobCount: 3, GrowthRate: 50}, {Skill: "Rust", JobCount: 1, GrowthRate: -10}}
	if err := s.SaveTrendingSnapshot(ctx, "30d", day, rows); err != nil {
		t.Fatal(err)
	}

	got, err := s.TrendingSnapshot(ctx, "30d", day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Skill != "Go" || got[0].JobCount != 3 || got[1].GrowthRate != -10 {
		t.Errorf("snapshot = %+v", got)
	}
	if err := s.SaveTrendingSnapshot(ctx, "30d", day, []TrendRow{{Skill: "Haskell"}}); err == nil {
		t.Error("expected error for unknown skill")
	}
}

func TestCheckpointStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cps := s.Checkpoints()
	ctx := context.Background()

	cp, err := cps.Get(ctx, "naukri")
	if err != nil {
		t.Fatal(err)
	}
	if !cp.IsZero() || cp.Source != "naukri" {
		t.Errorf("expected empty checkpoint, got %+v", cp)
	}

	want := model.Checkpoint{Source: "naukri", LastExternalID: "110", RecentIDs: []string{"109", "110"}, LoadedOffset: 512}
	if err := cps.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	want.LoadedOffset = 1024
	if err := cps.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := cps.Get(ctx, "naukri")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastExternalID != "110" || got.LoadedOffset != 1024 || len(got.RecentIDs) != 2 {
		t.Errorf("got %+v", got)
	}
	if err := cps.Put(ctx, model.Checkpoint{}); err == nil {
		t.Error("expected error for checkpoint without source")
	}
}

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind("SELECT * FROM t WHERE a = ? AND b = ?")
	if got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	if q := "a = ?"; sqliteDialect.rebind(q) != q {
		t.Error("sqlite rebind should be a no-op")
	}
}
