package main

import (
	"context"
	rtdebug "runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/analytics"
	"github.com/amishk599/jobpulse/internal/checkpoint"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{Sources: []config.SourceConfig{
		{Name: "remoteok", Type: "remoteok", Enabled: true},
		{Name: "naukri", Type: "naukri", Enabled: false},
		{Name: "wwr", Type: "weworkremotely", Enabled: true},
	}}
}

func TestSelectSources(t *testing.T) {
	cfg := testConfig()

	all, err := selectSources(cfg, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("selectSources(nil) = %v, %v; want the 2 enabled sources", all, err)
	}

	one, err := selectSources(cfg, []string{"wwr"})
	if err != nil || len(one) != 1 || one[0].Name != "wwr" {
		t.Errorf("selectSources(wwr) = %v, %v", one, err)
	}

	if _, err := selectSources(cfg, []string{"naukri"}); err == nil {
		t.Error("expected error for a disabled source")
	}
	if _, err := selectSources(cfg, []string{"indeed"}); err == nil {
		t.Error("expected error for an unknown source")
	}
}

func TestSourceRow(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	posted := time.Date(2026, 6, 9, 8, 0, 0, 0, time.UTC)
	sc := config.SourceConfig{Name: "remoteok", Type: "remoteok", Enabled: true}

	fresh := sourceRow(sc, model.Checkpoint{Source: "remoteok"}, 2048, now)
	if fresh[3] != "-" || fresh[4] != "-" || fresh[5] != "never" || fresh[6] != "2.0 kB" {
		t.Errorf("fresh row = %q", fresh)
	}

	cp := model.Checkpoint{
		Source:         "remoteok",
		LastExternalID: "110",
		LastPostedAt:   &posted,
		LoadedOffset:   2048,
		UpdatedAt:      now.Add(-2 * time.Hour),
	}
	row := sourceRow(sc, cp, 2048, now)
	want := []string{"remoteok", "remoteok", "enabled", "110", "2026-06-09", "2 hours ago", "0 B"}
	if strings.Join(row, "|") != strings.Join(want, "|") {
		t.Errorf("row = %q, want %q", row, want)
	}
}

func TestTrendingTable(t *testing.T) {
	data := trendingTable([]analytics.SkillTrend{
		{Skill: "Go", JobCount: 1200, GrowthRate: 0.5},
		{Skill: "Rust", JobCount: 3, GrowthRate: 0},
	})
	if len(data) != 3 || data[0][1] != "Skill" {
		t.Fatalf("table = %q", data)
	}
	if data[1][0] != "1" || data[1][2] != "1,200" || !strings.Contains(data[1][3], "+50.0%") {
		t.Errorf("first row = %q", data[1])
	}
	if data[2][3] != "+0.0%" {
		t.Errorf("flat growth = %q, want uncoloured +0.0%%", data[2][3])
	}
}

func TestCorrelationTableLimit(t *testing.T) {
	c := analytics.Correlation{Pairs: []analytics.SkillPair{
		{A: "Go", B: "Kubernetes", CoOccurrences: 4, Strength: 0.8},
		{A: "Go", B: "PostgreSQL", CoOccurrences: 2, Strength: 0.5},
		{A: "Rust", B: "Go", Strength: 0},
	}}
	if got := correlationTable(c, 2); len(got) != 3 {
		t.Errorf("limit 2 gave %d rows, want header + 2", len(got))
	}
	all := correlationTable(c, 0)
	if len(all) != 4 || all[1][3] != "0.800" || all[3][3] != "0.000" {
		t.Errorf("table = %q", all)
	}
}

func TestSeedDryRunResetsLoadedOffset(t *testing.T) {
	ctx := context.Background()
	durable, err := checkpoint.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := durable.Put(ctx, model.Checkpoint{Source: "remoteok", LastExternalID: "110", LoadedOffset: 500}); err != nil {
		t.Fatal(err)
	}

	mem := checkpoint.NewMemoryStore()
	if err := seedDryRun(ctx, mem, durable, []string{"remoteok", "wwr"}); err != nil {
		t.Fatal(err)
	}

	got, _ := mem.Get(ctx, "remoteok")
	if got.LastExternalID != "110" || got.LoadedOffset != 0 {
		t.Errorf("seeded checkpoint = %+v", got)
	}
	orig, _ := durable.Get(ctx, "remoteok")
	if orig.LoadedOffset != 500 {
		t.Errorf("real checkpoint changed: %+v", orig)
	}
}

func TestDash(t *testing.T) {
	if dash("") != "-" || dash("USD") != "USD" {
		t.Error("dash should only replace empty strings")
	}
}

func TestFormatVersion(t *testing.T) {
	stamped := &rtdebug.BuildInfo{
		GoVersion: "go1.24.2",
		Main:      rtdebug.Module{Path: "github.com/amishk599/jobpulse", Version: "(devel)"},
		Settings: []rtdebug.BuildSetting{
			{Key: "vcs.revision", Value: "3f2a9c1d04be7e10aa55c6e2f0b1d9a8c7e6f5a4"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	installed := &rtdebug.BuildInfo{
		GoVersion: "go1.24.2",
		Main:      rtdebug.Module{Path: "github.com/amishk599/jobpulse", Version: "v1.3.0"},
	}
	tests := []struct {
		name    string
		version string
		bi      *rtdebug.BuildInfo
		want    string
	}{
		{"no build info", "dev", nil, "jobpulse dev"},
		{"vcs stamped", "dev", stamped, "jobpulse dev (go1.24.2, rev 3f2a9c1d04be, modified)"},
		{"ldflags wins", "v2.0.0", installed, "jobpulse v2.0.0 (go1.24.2)"},
		{"module version", "dev", installed, "jobpulse v1.3.0 (go1.24.2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatVersion(resolveVersion(tt.version, tt.bi), tt.bi)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
