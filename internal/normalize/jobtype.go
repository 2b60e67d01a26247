package normalize

import (
	"regexp"
	"strings"
)

var jobTypePatterns = []struct {
	jobType string
	pattern *regexp.Regexp
}{
	{"internship", regexp.MustCompile(`(?i)\bintern(?:ship)?\b`)},
	{"contract", regexp.MustCompile(`(?i)\b(?:contract|contractor|c2c)\b`)},
	{"freelance", regexp.MustCompile(`(?i)\bfreelanc(?:e|er|ing)\b`)},
	{"temporary", regexp.MustCompile(`(?i)\b(?:temporary|temp)\b`)},
	{"part-time", regexp.MustCompile(`(?i)\bpart[\s-]?time\b`)},
	{"full-time", regexp.MustCompile(`(?i)\bfull[\s-]?time\b`)},
}

// detectJobType uses the source's own value when it maps to a known type,
// else the first keyword found in the title, then the description.
func detectJobType(sourceValue, title, description string) string {
	for _, text := range []string{sourceValue, title, description} {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, p := range jobTypePatterns {
			if p.pattern.MatchString(text) {
				return p.jobType
			}
		}
	}
	return ""
}
