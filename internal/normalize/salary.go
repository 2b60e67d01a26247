package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

var (
	salaryNumberRegex = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+|\d[\d,]*(?:\.\d+)?)\s*(k|mn|m|million|lpa|lakhs?|lacs?|l|crores?|cr)?\b`)
	dotThousandsRegex = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	currencyCodeRegex = regexp.MustCompile(`\b(usd|gbp|eur|jpy|inr|cad|aud)\b`)
	inrHintRegex      = regexp.MustCompile(`(?:^|[^a-z])(?:rs\.?|lpa|lakhs?|lacs?|crores?)(?:$|[^a-z])`)

	// rangeSepRegex matches the whole gap between the two ends of a range,
	// including a currency marker repeated on the upper end.
	rangeSepRegex       = regexp.MustCompile(`^\s*(?:-|–|—|to)\s*(?:[$£€¥₹]|[a-z]{1,2}\$|usd|gbp|eur|jpy|inr|cad|aud|rs\.?)?\s*$`)
	currencyBeforeRegex = regexp.MustCompile(`(?:[$£€¥₹]|\b(?:usd|gbp|eur|jpy|inr|cad|aud|rs\.?))\s*$`)
	currencyAfterRegex  = regexp.MustCompile(`^\s*(?:usd|gbp|eur|jpy|inr|cad|aud)\b`)
)

// currencySymbols maps symbols to ISO codes. Prefixed dollar forms are
// checked before the bare "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"c$", "CAD"},
	{"ca$", "CAD"},
	{"a$", "AUD"},
	{"au$", "AUD"},
	{"$", "USD"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

var salaryMultipliers = map[string]float64{
	"k": 1e3, "m": 1e6, "mn": 1e6, "million": 1e6,
	"l": 1e5, "lpa": 1e5, "lakh": 1e5, "lakhs": 1e5, "lac": 1e5, "lacs": 1e5,
	"cr": 1e7, "crore": 1e7, "crores": 1e7,
}

var salaryPeriods = []struct {
	period  string
	pattern *regexp.Regexp
}{
	{"hour", regexp.MustCompile(`(?:^|[^a-z])(?:hour|hourly|hr|/h|ph)(?:$|[^a-z])`)},
	{"day", regexp.MustCompile(`(?:^|[^a-z])(?:day|daily|per diem)(?:$|[^a-z])`)},
	{"week", regexp.MustCompile(`(?:^|[^a-z])(?:week|weekly|wk)(?:$|[^a-z])`)},
	{"month", regexp.MustCompile(`(?:^|[^a-z])(?:month|monthly|mo|pm|p\.m\.)(?:$|[^a-z])`)},
	{"year", regexp.MustCompile(`(?:^|[^a-z])(?:year|yearly|annual|annually|annum|yr|pa|p\.a\.?|lpa)(?:$|[^a-z])`)},
}

// salaryToken is one number found in salary text, with its byte span.
type salaryToken struct {
	value      float64
	suffix     string
	start, end int
	currency   bool // a currency symbol or code touches the number
}

func salaryTokens(text string) []salaryToken {
	var out []salaryToken
	for _, m := range salaryNumberRegex.FindAllStringSubmatchIndex(text, -1) {
		digits := text[m[2]:m[3]]
		if dotThousandsRegex.MatchString(digits) {
			digits = strings.ReplaceAll(digits, ".", "")
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
		if err != nil {
			continue
		}
		tok := salaryToken{value: v, start: m[2], end: m[1]}
		if m[4] >= 0 {
			tok.suffix = text[m[4]:m[5]]
		}
		tok.currency = currencyBeforeRegex.MatchString(text[:m[2]]) || currencyAfterRegex.MatchString(text[m[3]:])
		out = append(out, tok)
	}
	return out
}

// parseSalary extracts a (min, max, currency, period) tuple from free text.
//
// Two numbers form a range only when a range separator joins them. Otherwise
// the first number carrying a currency or multiplier is used for both ends.
// A bare number counts only when the text names a pay period. Anything else
// yields the zero Salary and false. min > max is swapped.
func parseSalary(raw string) (model.Salary, bool) {
	text := strings.ToLower(cleanText(raw))
	if text == "" {
		return model.Salary{}, false
	}
	tokens := salaryTokens(text)
	if len(tokens) == 0 {
		return model.Salary{}, false
	}

	lo, hi, ok := salaryRange(text, tokens)
	if !ok {
		return model.Salary{}, false
	}

	// "50-70k": a suffix on one side applies to both.
	if lo.suffix == "" {
		lo.suffix = hi.suffix
	} else if hi.suffix == "" {
		hi.suffix = lo.suffix
	}
	lakh := false
	for _, t := range []*salaryToken{&lo, &hi} {
		if mul, ok := salaryMultipliers[t.suffix]; ok {
			t.value *= mul
			if mul == 1e5 || mul == 1e7 {
				lakh = true
			}
		}
	}

	minV, maxV := lo.value, hi.value
	if minV > maxV {
		minV, maxV = maxV, minV
	}

	s := model.Salary{
		Min:      &minV,
		Max:      &maxV,
		Currency: detectCurrency(text, lakh),
		Period:   detectPeriod(text[lo.start:min(len(text), hi.end+24)]),
	}
	if s.Period == "" {
		s.Period = detectPeriod(text)
	}
	if s.Period == "" && lakh {
		s.Period = "year"
	}
	return s, true
}

// salaryRange picks the ends of the salary from tokens. A single figure is
// returned as both ends.
func salaryRange(text string, tokens []salaryToken) (lo, hi salaryToken, ok bool) {
	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if !rangeSepRegex.MatchString(text[a.end:b.start]) {
			continue
		}
		if a.currency || b.currency || a.suffix != "" || b.suffix != "" || detectPeriod(text) != "" {
			return a, b, true
		}
	}
	for _, t := range tokens {
		if t.currency || t.suffix != "" {
			return t, t, true
		}
	}
	if detectPeriod(text) != "" {
		return tokens[0], tokens[0], true
	}
	return salaryToken{}, salaryToken{}, false
}

func detectCurrency(text string, lakh bool) string {
	if m := currencyCodeRegex.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.code
		}
	}
	if lakh || inrHintRegex.MatchString(text) {
		return "INR"
	}
	return ""
}

func detectPeriod(text string) string {
	for _, p := range salaryPeriods {
		if p.pattern.MatchString(text) {
			return p.period
		}
	}
	return ""
}
