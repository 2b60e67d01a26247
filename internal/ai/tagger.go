package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"unicode/utf8"
)

const (
	maxTerms            = 15
	maxDescriptionRunes = 6000
)

// skillTermsSchema matches rawTerms.
var skillTermsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"skills": map[string]any{
			"type":     "array",
			"maxItems": maxTerms,
			"items":    map[string]any{"type": "string"},
		},
	},
	"required": []string{"skills"},
}

// SkillPromptTemplate renders the tagging prompt from a title and description.
var SkillPromptTemplate = template.Must(template.New("skill_terms").Parse(`List the technology skills a candidate needs for this job.
Return programming languages, frameworks, databases, cloud services and tools by their usual product name.
Do not return soft skills, job titles, company names or years of experience.

Title: {{.Title}}

Description:
{{.Description}}
`))

// SkillTagger extracts skill terms with an LLM. It satisfies
// normalize.TermExtractor.
type SkillTagger struct {
	provider Completer
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewSkillTagger creates a tagger. A nil tmpl uses SkillPromptTemplate.
func NewSkillTagger(provider Completer, tmpl *template.Template, logger *slog.Logger) *SkillTagger {
	if tmpl == nil {
		tmpl = SkillPromptTemplate
	}
	return &SkillTagger{provider: provider, tmpl: tmpl, logger: logger}
}

// ExtractTerms returns the skill names the LLM found. Postings without a
// description are skipped without a call.
func (t *SkillTagger) ExtractTerms(ctx context.Context, title, description string) ([]string, error) {
	if strings.TrimSpace(description) == "" {
		return nil, nil
	}

	var prompt bytes.Buffer
	if err := t.tmpl.Execute(&prompt, struct{ Title, Description string }{
		Title:       title,
		Description: truncateRunes(description, maxDescriptionRunes),
	}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := t.provider.Complete(ctx, Request{
		System:     "You extract technology skill names from job postings.",
		Prompt:     prompt.String(),
		SchemaName: "skill_terms",
		Schema:     skillTermsSchema,
		MaxTokens:  256,
	})
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	terms, err := parseTerms(raw)
	if err != nil {
		return nil, fmt.Errorf("parse terms: %w", err)
	}
	if t.logger != nil {
		t.logger.Debug("llm skill terms", "title", title, "count", len(terms))
	}
	return terms, nil
}

type rawTerms struct {
	Skills []string `json:"skills"`
}

// parseTerms decodes the structured response, trimming blanks and
// case-insensitive duplicates and capping the list at maxTerms.
func parseTerms(raw string) ([]string, error) {
	var rt rawTerms
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		return nil, fmt.Errorf("unmarshal terms JSON: %w", err)
	}
	seen := make(map[string]bool, len(rt.Skills))
	out := make([]string, 0, len(rt.Skills))
	for _, s := range rt.Skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == maxTerms {
			break
		}
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
