package filter

import (
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

// TitleFilter matches postings whose title contains any of the include
// keywords and none of the exclude keywords. Matching is case-insensitive
// substring. An empty include list matches all titles.
type TitleFilter struct {
	include []string
	exclude []string
}

// NewTitleFilter returns a filter over posting titles.
func NewTitleFilter(include, exclude []string) *TitleFilter {
	return &TitleFilter{include: lowerAll(include), exclude: lowerAll(exclude)}
}

// Match reports whether the posting passes the title keyword rules.
func (f *TitleFilter) Match(p model.RawPosting) bool {
	title := strings.ToLower(p.Title)

	for _, kw := range f.exclude {
		if strings.Contains(title, kw) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, kw := range f.include {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// Region matches locations against a free-text region filter. The filter
// matches when it is a case-insensitive substring of the city, state or
// country. The special value "remote" matches remote locations. An empty
// Region matches everything.
type Region string

// Match reports whether loc falls inside the region.
func (r Region) Match(loc model.Location) bool {
	q := strings.ToLower(strings.TrimSpace(string(r)))
	if q == "" {
		return true
	}
	if q == "remote" {
		return loc.IsRemote
	}
	for _, part := range []string{loc.City, loc.State, loc.Country} {
		if part != "" && strings.Contains(strings.ToLower(part), q) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
