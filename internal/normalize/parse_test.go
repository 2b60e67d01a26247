package normalize

import (
	"fmt"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

func TestVocabularyMatch(t *testing.T) {
	v := DefaultVocabulary()
	tests := []struct {
		text string
		want []string
	}{
		{"Python, python, PYTHON", []string{"Python"}},
		{"Looking for a Go developer", []string{"Go"}},
		{"We go above and beyond", nil},
		{"Go beyond expectations.", nil},
		{"Ship fast. Go the extra mile!", nil},
		{"- Go further with us", nil},
		{"Go, Kubernetes and Docker", []string{"Docker", "Go", "Kubernetes"}},
		{"We write Go. Go beyond the basics.", []string{"Go"}},
		{"Go beyond: golang services", []string{"Go"}},
		{"Golang and golang microservices", []string{"Go"}},
		{"C++ and C# on .NET", []string{".NET", "C#", "C++"}},
		{"ASP.NET MVC", []string{"ASP.NET"}},
		{"node.js backend", []string{"Node.js"}},
		{"k8s, postgres", []string{"Kubernetes", "PostgreSQL"}},
		{"MySQL only", []string{"MySQL"}},
		{"R&D team", nil},
		{"Statistics in R and Python", []string{"Python", "R"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := skillNames(v.Match(tt.text))
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !equalStrings(got, tt.want) {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestVocabularyMatchOrderIndependent(t *testing.T) {
	v := DefaultVocabulary()
	a := skillNames(v.Match("Rust, Go, Docker"))
	b := skillNames(v.Match("Docker, Go, Rust"))
	if !equalStrings(a, b) {
		t.Errorf("order changed result: %v vs %v", a, b)
	}
}

func TestVocabularyExtraTerms(t *testing.T) {
	v := DefaultVocabulary(Term{Name: "Temporal", Category: model.CategoryTool, Aliases: []string{"temporal.io"}})
	got := v.Match("Workflows on temporal.io")
	if len(got) != 1 || got[0].Name != "Temporal" || got[0].Category != model.CategoryTool {
		t.Errorf("Match = %+v", got)
	}
	if sk, ok := v.Lookup("TEMPORAL.IO"); !ok || sk.Name != "Temporal" {
		t.Errorf("Lookup alias = %+v, %v", sk, ok)
	}
}

func TestHeuristicTerms(t *testing.T) {
	text := "You have experience with Temporal, Pulumi and BigQuery. Strong communication skills are a plus. Tech stack: Svelte/Deno; nice."
	got := heuristicTerms(text)
	want := []string{"Temporal", "Pulumi", "BigQuery", "Svelte", "Deno"}
	if !equalStrings(got, want) {
		t.Errorf("heuristicTerms = %v, want %v", got, want)
	}
}

func TestHeuristicTermsRejectsProse(t *testing.T) {
	got := heuristicTerms("Experience with distributed systems and 5+ years of backend work.")
	if len(got) != 0 {
		t.Errorf("expected no terms from prose, got %v", got)
	}
}

func f(v float64) *float64 { return &v }

func TestParseSalary(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Salary
		ok   bool
	}{
		{"$80,000 - $100,000/year", model.Salary{Min: f(80000), Max: f(100000), Currency: "USD", Period: "year"}, true},
		{"competitive salary", model.Salary{}, false},
		{"", model.Salary{}, false},
		{"£50k-70k per annum", model.Salary{Min: f(50000), Max: f(70000), Currency: "GBP", Period: "year"}, true},
		{"€45 per hour", model.Salary{Min: f(45), Max: f(45), Currency: "EUR", Period: "hour"}, true},
		{"10-15 Lacs PA", model.Salary{Min: f(1000000), Max: f(1500000), Currency: "INR", Period: "year"}, true},
		{"₹ 12 LPA", model.Salary{Min: f(1200000), Max: f(1200000), Currency: "INR", Period: "year"}, true},
		{"CAD 90000 to 80000 yearly", model.Salary{Min: f(80000), Max: f(90000), Currency: "CAD", Period: "year"}, true},
		{"5000 USD/month", model.Salary{Min: f(5000), Max: f(5000), Currency: "USD", Period: "month"}, true},
		{"1.2M", model.Salary{Min: f(1200000), Max: f(1200000)}, true},
		{"$120,000 a year + 25 days PTO", model.Salary{Min: f(120000), Max: f(120000), Currency: "USD", Period: "year"}, true},
		{"€50.000 - €60.000 per year", model.Salary{Min: f(50000), Max: f(60000), Currency: "EUR", Period: "year"}, true},
		{"€1.250 per month", model.Salary{Min: f(1250), Max: f(1250), Currency: "EUR", Period: "month"}, true},
		{"2 openings, $95k", model.Salary{Min: f(95000), Max: f(95000), Currency: "USD"}, true},
		{"70000 – 90000 per annum", model.Salary{Min: f(70000), Max: f(90000), Period: "year"}, true},
		{"401(k) matching", model.Salary{}, false},
		{"3 to 5 openings", model.Salary{}, false},
	}
	for _, tt := range tests {
		got, ok := parseSalary(tt.raw)
		if ok != tt.ok {
			t.Errorf("parseSalary(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if !sameFloat(got.Min, tt.want.Min) || !sameFloat(got.Max, tt.want.Max) ||
			got.Currency != tt.want.Currency || got.Period != tt.want.Period {
			t.Errorf("parseSalary(%q) = %s, want %s", tt.raw, fmtSalary(got), fmtSalary(tt.want))
		}
	}
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtSalary(s model.Salary) string {
	val := func(p *float64) string {
		if p == nil {
			return "null"
		}
		return fmt.Sprintf("%g", *p)
	}
	return fmt.Sprintf("{min:%s max:%s currency:%q period:%q}", val(s.Min), val(s.Max), s.Currency, s.Period)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Location
		ok   bool
	}{
		{"Austin, TX", model.Location{City: "Austin", State: "Texas", Country: "United States"}, true},
		{"Portland, OR", model.Location{City: "Portland", State: "Oregon", Country: "United States"}, true},
		{"Berlin, Germany", model.Location{City: "Berlin", Country: "Germany"}, true},
		{"Bangalore", model.Location{City: "Bengaluru", State: "Karnataka", Country: "India"}, true},
		{"Gurgaon, Haryana, India", model.Location{City: "Gurugram", State: "Haryana", Country: "India"}, true},
		{"Remote", model.Location{IsRemote: true}, true},
		{"Remote - USA", model.Location{Country: "United States", IsRemote: true}, true},
		{"Work from home", model.Location{IsRemote: true}, true},
		{"Mumbai / Pune", model.Location{City: "Mumbai", State: "Maharashtra", Country: "India"}, true},
		{"Multiple Locations", model.UnknownLocation, false},
		{"", model.UnknownLocation, false},
		{"Springfield", model.Location{City: "Springfield"}, true},
		{"Hybrid - London", model.Location{City: "London", State: "England", Country: "United Kingdom"}, true},
		{"Berlin (On-site)", model.Location{City: "Berlin", Country: "Germany"}, true},
		{"Toronto - Canada", model.Location{City: "Toronto", State: "Ontario", Country: "Canada"}, true},
		{"Hybrid", model.UnknownLocation, false},
	}
	for _, tt := range tests {
		got, ok := parseLocation(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseLocation(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2026-05-20", day(2026, 5, 20), true},
		{"2026-05-20T09:30:00Z", time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC), true},
		{"Wed, 20 May 2026 09:30:00 +0000", time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC), true},
		{"20/05/2026", day(2026, 5, 20), true},
		{"05/25/2026", day(2026, 5, 25), true},
		{"May 20, 2026", day(2026, 5, 20), true},
		{"20 May 2026", day(2026, 5, 20), true},
		{"1779264000", time.Unix(1779264000, 0).UTC(), true},
		{"Today", scrapedAt, true},
		{"Yesterday", scrapedAt.AddDate(0, 0, -1), true},
		{"3 days ago", scrapedAt.AddDate(0, 0, -3), true},
		{"Posted 2 weeks ago", scrapedAt.AddDate(0, 0, -14), true},
		{"30+ days ago", scrapedAt.AddDate(0, 0, -30), true},
		{"5 hours ago", scrapedAt.Add(-5 * time.Hour), true},
		{"whenever", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.raw, scrapedAt)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDetectJobType(t *testing.T) {
	tests := []struct {
		source, title, desc, want string
	}{
		{"Full Time", "Engineer", "", "full-time"},
		{"", "Summer Internship - Backend", "", "internship"},
		{"", "Engineer", "This is a 6 month contract role", "contract"},
		{"", "Engineer", "part-time, flexible", "part-time"},
		{"", "Engineer", "", ""},
	}
	for _, tt := range tests {
		if got := detectJobType(tt.source, tt.title, tt.desc); got != tt.want {
			t.Errorf("detectJobType(%q, %q, %q) = %q, want %q", tt.source, tt.title, tt.desc, got, tt.want)
		}
	}
}
