package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// ErrMissingSource rejects a posting that has no source name.
var ErrMissingSource = errors.New("posting has no source")

// Normalizer turns staged RawPostings into CanonicalJobs. It holds no state
// between calls beyond its vocabulary and collaborators.
type Normalizer struct {
	vocab     *Vocabulary
	heuristic bool
	tagger    TermExtractor
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a Normalizer. tagger may be nil.
func New(vocab *Vocabulary, heuristic bool, tagger TermExtractor, logger *slog.Logger) *Normalizer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Normalizer{
		vocab:     vocab,
		heuristic: heuristic,
		tagger:    tagger,
		logger:    logger,
		now:       time.Now,
	}
}

// Outcome reports what happened to one posting.
type Outcome struct {
	Job      model.CanonicalJob
	Degraded []string // fields that fell back to null or placeholder values
}

// Normalize converts one posting. It fails only when the posting lacks a
// mandatory field; every other parse failure degrades the field and is
// listed in Outcome.Degraded.
func (n *Normalizer) Normalize(ctx context.Context, raw model.RawPosting) (Outcome, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return Outcome{}, model.NewStageError(model.KindRecordReject, "normalize", raw.Source,
			fmt.Errorf("%s: %w", raw.ExternalID, model.ErrMissingTitle))
	}
	if strings.TrimSpace(raw.Source) == "" {
		return Outcome{}, model.NewStageError(model.KindRecordReject, "normalize", "",
			fmt.Errorf("%s: %w", raw.ExternalID, ErrMissingSource))
	}

	var out Outcome
	scraped := raw.ScrapedDate
	if scraped.IsZero() {
		scraped = n.now()
	}
	scraped = scraped.UTC()

	companyName := cleanText(raw.CompanyRaw)
	externalID := strings.TrimSpace(raw.ExternalID)
	if externalID == "" {
		externalID = model.DerivedID(raw.Source, raw.Title, companyName, raw.URL)
	}

	description := cleanText(raw.Description)
	job := model.CanonicalJob{
		Source:     raw.Source,
		ExternalID: externalID,
		Title:      raw.Title,
		Company: model.Company{
			Name:           companyName,
			NormalizedName: normalizeCompany(companyName),
		},
		Description: description,
		URL:         strings.TrimSpace(raw.URL),
		ScrapedDate: scraped,
		JobType:     detectJobType(raw.JobType, raw.Title, description),
	}

	loc, ok := parseLocation(raw.LocationRaw)
	job.Location = loc
	if !ok && strings.TrimSpace(raw.LocationRaw) != "" {
		out.Degraded = append(out.Degraded, "location")
	}

	if sal, ok := parseSalary(raw.SalaryRaw); ok {
		job.Salary = sal
	} else if strings.TrimSpace(raw.SalaryRaw) != "" {
		out.Degraded = append(out.Degraded, "salary")
	}

	if posted, ok := parseDate(raw.PostedDate, scraped); ok {
		job.PostedDate = &posted
	} else if strings.TrimSpace(raw.PostedDate) != "" {
		out.Degraded = append(out.Degraded, "posted_date")
	}

	skills, err := n.extractSkills(ctx, raw, description)
	if err != nil {
		out.Degraded = append(out.Degraded, "skills")
		n.logger.Debug("term extractor failed", "source", raw.Source, "external_id", externalID, "error", err)
	}
	job.Skills = skills

	out.Job = job
	return out, nil
}

// extractSkills merges vocabulary matches over title, description and tags
// with the heuristic and tagger terms. The result is deduplicated
// case-insensitively and sorted by name.
func (n *Normalizer) extractSkills(ctx context.Context, raw model.RawPosting, description string) ([]model.Skill, error) {
	set := skillSet{}
	set.add(n.vocab.Match(raw.Title)...)
	set.add(n.vocab.Match(description)...)
	for _, tag := range raw.Tags {
		if sk, ok := n.vocab.Lookup(tag); ok {
			set.add(sk)
		}
	}
	if n.heuristic {
		set.add(resolveTerms(n.vocab, heuristicTerms(description))...)
	}

	var taggerErr error
	if n.tagger != nil {
		terms, err := n.tagger.ExtractTerms(ctx, raw.Title, description)
		if err != nil {
			taggerErr = err
		} else {
			set.add(resolveTerms(n.vocab, terms)...)
		}
	}
	return set.sorted(), taggerErr
}

// Result summarizes a batch normalization.
type Result struct {
	Jobs     []model.CanonicalJob
	Rejected int
	Degraded int // records kept with at least one degraded field
}

// NormalizeAll converts a batch. Rejected records are logged and counted,
// never retried. Cancelling ctx stops between records and returns what was
// converted so far.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []model.RawPosting) Result {
	var res Result
	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		out, err := n.Normalize(ctx, raw)
		if err != nil {
			res.Rejected++
			n.logger.Warn("rejected posting", "source", raw.Source, "external_id", raw.ExternalID, "error", err)
			continue
		}
		if len(out.Degraded) > 0 {
			res.Degraded++
			n.logger.Debug("degraded posting", "source", raw.Source, "external_id", out.Job.ExternalID, "fields", out.Degraded)
		}
		res.Jobs = append(res.Jobs, out.Job)
	}
	return res
}
