package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var relativeDateRegex = regexp.MustCompile(`(\d+)\+?\s*(minute|min|hour|hr|day|week|month|year)s?\s+ago`)

// parseDate resolves a posted date against the scrape time. Absolute
// layouts are tried first, then relative forms like "3 days ago". The
// result is false when nothing matched.
//
// Ambiguous numeric dates such as 03/04/2026 are read day-first.
func parseDate(raw string, scraped time.Time) (time.Time, bool) {
	s := strings.TrimSpace(cleanText(raw))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}

	lower := strings.ToLower(s)
	lower = strings.TrimPrefix(lower, "posted ")
	lower = strings.TrimPrefix(lower, "active ")
	switch lower {
	case "today", "just now", "just posted", "few hours ago", "a few hours ago", "now":
		return scraped.UTC(), true
	case "yesterday":
		return scraped.AddDate(0, 0, -1).UTC(), true
	}

	m := relativeDateRegex.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	var t time.Time
	switch m[2] {
	case "minute", "min":
		t = scraped.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		t = scraped.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = scraped.AddDate(0, 0, -n)
	case "week":
		t = scraped.AddDate(0, 0, -7*n)
	case "month":
		t = scraped.AddDate(0, 0, -30*n)
	case "year":
		t = scraped.AddDate(-n, 0, 0)
	}
	return t.UTC(), true
}
