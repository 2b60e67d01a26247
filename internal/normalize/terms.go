package normalize

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/amishk599/jobpulse/internal/model"
)

// TermExtractor finds skill terms outside the vocabulary, e.g. an LLM tagger.
type TermExtractor interface {
	ExtractTerms(ctx context.Context, title, description string) ([]string, error)
}

// cuePhrases introduce lists of technologies in job descriptions. The list
// runs until a sentence end or semicolon.
var cuePhraseRegex = regexp.MustCompile(`(?i)(?:experience (?:with|in|using)|proficien(?:cy|t) (?:in|with)|knowledge of|familiar(?:ity)? with|tech(?:nology)? stack(?: includes?)?|skills)\s*:?\s+(.{1,200}?)(?:[.;!?](?:\s|$)|$)`)

var listSplitRegex = regexp.MustCompile(`(?i)\s*(?:,|/|\(|\)|\band\b|\bor\b|&)\s*`)

const (
	minTermLen   = 2
	maxTermLen   = 30
	maxTermWords = 3
)

var termStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "our": true, "your": true, "we": true, "you": true,
	"strong": true, "good": true, "solid": true, "excellent": true, "deep": true, "working": true,
	"hands-on": true, "modern": true, "similar": true, "related": true, "other": true, "etc": true,
	"tools": true, "technologies": true, "frameworks": true, "experience": true, "years": true,
	"plus": true, "bonus": true, "including": true, "such": true, "as": true, "e.g": true,
	"i": true, "ii": true, "us": true, "it": true, "is": true, "are": true, "in": true, "of": true,
}

// heuristicTerms pulls candidate skills from cue-phrase lists. Candidates
// must look like identifiers: an uppercase letter, digit or one of ".+#"
// somewhere in the term.
func heuristicTerms(text string) []string {
	var out []string
	for _, m := range cuePhraseRegex.FindAllStringSubmatch(text, -1) {
		for _, part := range listSplitRegex.Split(m[1], -1) {
			if term, ok := termCandidate(part); ok {
				out = append(out, term)
			}
		}
	}
	return out
}

func termCandidate(s string) (string, bool) {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"'*:-–`, r)
	})
	if len(s) < minTermLen || len(s) > maxTermLen {
		return "", false
	}
	words := strings.Fields(s)
	if len(words) > maxTermWords || termStopwords[strings.ToLower(words[0])] {
		return "", false
	}
	if strings.HasSuffix(strings.ToLower(s), "years") {
		return "", false
	}
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsDigit(r) || strings.ContainsRune(".+#", r) {
			return s, !onlyDigits(s)
		}
	}
	return "", false
}

func onlyDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && r != '+' {
			return false
		}
	}
	return true
}

// resolveTerms maps free terms onto the vocabulary where possible and keeps
// the rest as uncategorized skills.
func resolveTerms(v *Vocabulary, terms []string) []model.Skill {
	out := make([]model.Skill, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if sk, ok := v.Lookup(t); ok {
			out = append(out, sk)
			continue
		}
		out = append(out, model.Skill{Name: t, Category: model.CategoryOther})
	}
	return out
}
