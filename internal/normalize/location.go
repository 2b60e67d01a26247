package normalize

import (
	"regexp"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

var (
	remoteRegex   = regexp.MustCompile(`(?i)\b(?:remote|anywhere|wfh|work from home|work-from-home|distributed|worldwide)\b`)
	workModeRegex = regexp.MustCompile(`(?i)\b(?:hybrid|on-?site|in[- ]office|in[- ]person)\b`)
)

// parseLocation splits free-text location into components. The second
// return value is false when neither a place nor a remote keyword was found;
// the location is then model.UnknownLocation.
func parseLocation(raw string) (model.Location, bool) {
	text := cleanText(raw)
	remote := remoteRegex.MatchString(text)

	rest := remoteRegex.ReplaceAllString(text, " ")
	rest = workModeRegex.ReplaceAllString(rest, " ")
	rest = strings.Trim(strings.Join(strings.Fields(rest), " "), " ,-/|()")
	if rest == "" || placeholderLocations[strings.ToLower(rest)] {
		if remote {
			return model.Location{IsRemote: true}, true
		}
		return model.UnknownLocation, false
	}

	// Multiple locations: keep the first one.
	if i := strings.IndexAny(rest, ";|/"); i > 0 {
		rest = strings.TrimSpace(rest[:i])
	}

	parts := splitParts(strings.ReplaceAll(rest, " - ", ", "))
	loc := model.Location{IsRemote: remote}

	switch len(parts) {
	case 1:
		p := parts[0]
		if country, ok := lookupCountry(p); ok {
			loc.Country = country
		} else if city, ok := lookupCity(p); ok {
			loc.City, loc.State, loc.Country = city.name, city.state, city.country
		} else if state, ok := usStateCode(p); ok {
			loc.State, loc.Country = state, "United States"
		} else {
			loc.City = p
		}
	default:
		first, last := parts[0], parts[len(parts)-1]
		if c, ok := lookupCity(first); ok {
			loc.City, loc.State, loc.Country = c.name, c.state, c.country
			break
		}
		loc.City = first
		if len(parts) > 2 {
			loc.State = parts[1]
		}
		if state, ok := usStateCode(last); ok && len(parts) == 2 {
			loc.State, loc.Country = state, "United States"
		} else if country, ok := lookupCountry(last); ok {
			loc.Country = country
			if state, ok := usStateCode(loc.State); ok && country == "United States" {
				loc.State = state
			}
		} else {
			loc.Country = last
		}
	}
	return loc, true
}

func splitParts(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type cityInfo struct {
	name    string
	state   string
	country string
}

// usStateCode matches two-letter upper-case US state codes only, so "in"
// and "ca" in free text are not mistaken for states.
func usStateCode(s string) (string, bool) {
	if len(s) != 2 || strings.ToUpper(s) != s {
		return "", false
	}
	state, ok := usStates[s]
	return state, ok
}

func lookupCity(s string) (cityInfo, bool) {
	c, ok := cityVariants[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

func lookupCountry(s string) (string, bool) {
	c, ok := countryVariants[strings.ToLower(strings.Trim(strings.TrimSpace(s), "."))]
	return c, ok
}

var placeholderLocations = map[string]bool{
	"n/a": true, "na": true, "none": true, "not specified": true, "unspecified": true,
	"multiple locations": true, "various": true, "various locations": true, "tbd": true,
	"unknown": true, "location": true, "-": true,
}

var cityVariants = map[string]cityInfo{
	"sf":            {"San Francisco", "California", "United States"},
	"san francisco": {"San Francisco", "California", "United States"},
	"sfo":           {"San Francisco", "California", "United States"},
	"bay area":      {"San Francisco", "California", "United States"},
	"nyc":           {"New York", "New York", "United States"},
	"new york":      {"New York", "New York", "United States"},
	"new york city": {"New York", "New York", "United States"},
	"la":            {"Los Angeles", "California", "United States"},
	"los angeles":   {"Los Angeles", "California", "United States"},
	"seattle":       {"Seattle", "Washington", "United States"},
	"austin":        {"Austin", "Texas", "United States"},
	"boston":        {"Boston", "Massachusetts", "United States"},
	"chicago":       {"Chicago", "Illinois", "United States"},
	"london":        {"London", "England", "United Kingdom"},
	"berlin":        {"Berlin", "", "Germany"},
	"paris":         {"Paris", "", "France"},
	"amsterdam":     {"Amsterdam", "", "Netherlands"},
	"toronto":       {"Toronto", "Ontario", "Canada"},
	"vancouver":     {"Vancouver", "British Columbia", "Canada"},
	"sydney":        {"Sydney", "New South Wales", "Australia"},
	"singapore":     {"Singapore", "", "Singapore"},
	"dublin":        {"Dublin", "", "Ireland"},
	"bangalore":     {"Bengaluru", "Karnataka", "India"},
	"bengaluru":     {"Bengaluru", "Karnataka", "India"},
	"mumbai":        {"Mumbai", "Maharashtra", "India"},
	"bombay":        {"Mumbai", "Maharashtra", "India"},
	"delhi":         {"New Delhi", "Delhi", "India"},
	"new delhi":     {"New Delhi", "Delhi", "India"},
	"delhi ncr":     {"New Delhi", "Delhi", "India"},
	"gurgaon":       {"Gurugram", "Haryana", "India"},
	"gurugram":      {"Gurugram", "Haryana", "India"},
	"noida":         {"Noida", "Uttar Pradesh", "India"},
	"hyderabad":     {"Hyderabad", "Telangana", "India"},
	"pune":          {"Pune", "Maharashtra", "India"},
	"chennai":       {"Chennai", "Tamil Nadu", "India"},
	"madras":        {"Chennai", "Tamil Nadu", "India"},
	"kolkata":       {"Kolkata", "West Bengal", "India"},
	"calcutta":      {"Kolkata", "West Bengal", "India"},
}

var countryVariants = map[string]string{
	"us": "United States", "usa": "United States", "u.s": "United States", "u.s.a": "United States",
	"united states": "United States", "united states of america": "United States", "america": "United States",
	"uk": "United Kingdom", "u.k": "United Kingdom", "united kingdom": "United Kingdom",
	"england": "United Kingdom", "great britain": "United Kingdom", "gb": "United Kingdom",
	"india": "India", "in": "India",
	"germany": "Germany", "deutschland": "Germany", "de": "Germany",
	"france": "France", "netherlands": "Netherlands", "the netherlands": "Netherlands", "holland": "Netherlands",
	"canada": "Canada", "ca": "Canada",
	"australia": "Australia", "au": "Australia",
	"ireland": "Ireland", "spain": "Spain", "portugal": "Portugal", "poland": "Poland",
	"singapore": "Singapore", "japan": "Japan", "brazil": "Brazil", "mexico": "Mexico",
	"europe": "Europe", "eu": "Europe", "emea": "EMEA", "latam": "LATAM", "apac": "APAC",
}

var usStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}
