package filter

import (
	"testing"

	"github.com/amishk599/jobpulse/internal/model"
)

func TestTitleFilter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		title   string
		want    bool
	}{
		{"no keywords matches all", nil, nil, "Account Manager", true},
		{"include match", []string{"engineer"}, nil, "Senior Software Engineer", true},
		{"include case insensitive", []string{"Developer"}, nil, "golang developer", true},
		{"include miss", []string{"engineer"}, nil, "Sales Lead", false},
		{"exclude wins", []string{"engineer"}, []string{"intern"}, "Engineer Intern", false},
		{"exclude only", nil, []string{"sales"}, "Sales Engineer", false},
		{"blank keywords ignored", []string{"  "}, nil, "Anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTitleFilter(tt.include, tt.exclude)
			if got := f.Match(model.RawPosting{Title: tt.title}); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestRegionMatch(t *testing.T) {
	blr := model.Location{City: "Bengaluru", State: "Karnataka", Country: "India"}
	remote := model.Location{Country: "United States", IsRemote: true}

	tests := []struct {
		region Region
		loc    model.Location
		want   bool
	}{
		{"", blr, true},
		{"india", blr, true},
		{"BENGAL", blr, true},
		{"karnataka", blr, true},
		{"germany", blr, false},
		{"remote", remote, true},
		{"remote", blr, false},
		{"united states", remote, true},
	}
	for _, tt := range tests {
		if got := tt.region.Match(tt.loc); got != tt.want {
			t.Errorf("Region(%q).Match(%+v) = %v, want %v", tt.region, tt.loc, got, tt.want)
		}
	}
}
