package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Loader upserts canonical jobs and their dimension rows in transactional
// batches.
type Loader struct {
	store     *Store
	batchSize int
	logger    *slog.Logger
	progress  func(done, total int)
}

// NewLoader returns a loader writing to store in batches of batchSize.
func NewLoader(store *Store, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Loader{store: store, batchSize: batchSize, logger: logger}
}

// OnProgress registers fn to be called after each batch with the number of
// records processed so far.
func (l *Loader) OnProgress(fn func(done, total int)) {
	l.progress = fn
}

// Load writes jobs batch by batch. A failing batch is retried once, then
// counted as failed and skipped; later batches still run. Cancelling ctx
// stops between batches.
func (l *Loader) Load(ctx context.Context, jobs []model.CanonicalJob) model.LoadStats {
	var stats model.LoadStats
	for start := 0; start < len(jobs); start += l.batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+l.batchSize, len(jobs))
		batch := jobs[start:end]
		stats.Batches++

		err := l.LoadBatch(ctx, batch)
		if err != nil && ctx.Err() == nil {
			l.logger.Warn("batch load failed, retrying", "batch", stats.Batches, "size", len(batch), "error", err)
			err = l.LoadBatch(ctx, batch)
		}
		if err != nil {
			stats.FailedBatches++
			stats.FailedRecords += len(batch)
			se := model.NewStageError(model.KindLoadConflict, "load", "", err)
			l.logger.Error("batch skipped", "batch", stats.Batches, "size", len(batch), "error", se)
		} else {
			stats.Loaded += len(batch)
		}

		if l.progress != nil {
			l.progress(end, len(jobs))
		}
	}
	return stats
}

// LoadBatch upserts jobs in a single transaction. Either every job and its
// skill links are written or none are.
func (l *Loader) LoadBatch(ctx context.Context, jobs []model.CanonicalJob) error {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	bl := batchLoader{
		s:         l.store,
		tx:        tx,
		now:       l.store.now().UTC(),
		companies: make(map[string]int64),
		locations: make(map[model.Location]int64),
		skills:    make(map[string]int64),
	}
	for _, job := range jobs {
		if err := bl.upsertJob(ctx, job); err != nil {
			return fmt.Errorf("job %s/%s: %w", job.Source, job.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// batchLoader caches dimension IDs resolved within one transaction.
type batchLoader struct {
	s         *Store
	tx        *sql.Tx
	now       time.Time
	companies map[string]int64
	locations map[model.Location]int64
	skills    map[string]int64
}

func (b *batchLoader) upsertJob(ctx context.Context, job model.CanonicalJob) error {
	if strings.TrimSpace(job.Title) == "" || job.Source == "" || job.ExternalID == "" {
		return fmt.Errorf("job is missing title, source or external id")
	}

	companyID, err := b.resolveCompany(ctx, job.Company)
	if err != nil {
		return err
	}
	locationID, err := b.resolveLocation(ctx, job.Location)
	if err != nil {
		return err
	}
	skillIDs := make([]int64, 0, len(job.Skills))
	for _, sk := range job.Skills {
		id, err := b.resolveSkill(ctx, sk)
		if err != nil {
			return err
		}
		skillIDs = append(skillIDs, id)
	}

	sal := job.Salary
	if sal.Min != nil && sal.Max != nil && *sal.Max < *sal.Min {
		sal.Min, sal.Max = sal.Max, sal.Min
	}

	var jobID int64
	err = b.s.queryRow(ctx, b.tx, `
		INSERT INTO jobs (external_job_id, source, title, company_id, location_id, description,
			salary_min, salary_max, salary_currency, salary_period, job_type, url,
			posted_date, scraped_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, external_job_id) DO UPDATE SET
			title = excluded.title,
			company_id = excluded.company_id,
			location_id = excluded.location_id,
			description = excluded.description,
			salary_min = excluded.salary_min,
			salary_max = excluded.salary_max,
			salary_currency = excluded.salary_currency,
			salary_period = excluded.salary_period,
			job_type = excluded.job_type,
			url = excluded.url,
			posted_date = excluded.posted_date,
			scraped_date = excluded.scraped_date,
			updated_at = excluded.updated_at
		RETURNING job_id`,
		job.ExternalID, job.Source, job.Title, companyID, locationID, job.Description,
		sal.Min, sal.Max, nullString(sal.Currency), nullString(sal.Period), nullString(job.JobType), job.URL,
		utcPtr(job.PostedDate), job.ScrapedDate.UTC(), b.now, b.now,
	).Scan(&jobID)
	if err != nil {
		return fmt.Errorf("upserting job: %w", err)
	}

	return b.replaceSkillLinks(ctx, jobID, skillIDs)
}

// resolveCompany returns nil for postings without a company name.
func (b *batchLoader) resolveCompany(ctx context.Context, c model.Company) (any, error) {
	if c.NormalizedName == "" {
		return nil, nil
	}
	if id, ok := b.companies[c.NormalizedName]; ok {
		return id, nil
	}
	var id int64
	err := b.s.queryRow(ctx, b.tx, `
		INSERT INTO companies (company_name, normalized_name, industry, website, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (normalized_name) DO UPDATE SET
			company_name = excluded.company_name,
			industry = CASE WHEN excluded.industry <> '' THEN excluded.industry ELSE companies.industry END,
			website = CASE WHEN excluded.website <> '' THEN excluded.website ELSE companies.website END,
			updated_at = CASE
				WHEN companies.company_name <> excluded.company_name
					OR (excluded.industry <> '' AND companies.industry <> excluded.industry)
					OR (excluded.website <> '' AND companies.website <> excluded.website)
				THEN excluded.updated_at
				ELSE companies.updated_at
			END
		RETURNING company_id`,
		c.Name, c.NormalizedName, c.Industry, c.Website, b.now, b.now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("resolving company %q: %w", c.NormalizedName, err)
	}
	b.companies[c.NormalizedName] = id
	return id, nil
}

func (b *batchLoader) resolveLocation(ctx context.Context, loc model.Location) (int64, error) {
	if id, ok := b.locations[loc]; ok {
		return id, nil
	}
	var id int64
	err := b.s.queryRow(ctx, b.tx, `
		INSERT INTO locations (city, state, country, is_remote, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (city, state, country, is_remote) DO UPDATE SET city = excluded.city
		RETURNING location_id`,
		loc.City, loc.State, loc.Country, loc.IsRemote, b.now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving location %+v: %w", loc, err)
	}
	b.locations[loc] = id
	return id, nil
}

// resolveSkill matches skills case-insensitively. The first spelling stored
// is kept.
func (b *batchLoader) resolveSkill(ctx context.Context, sk model.Skill) (int64, error) {
	key := skillKey(sk.Name)
	if id, ok := b.skills[key]; ok {
		return id, nil
	}
	category := sk.Category
	if category == "" {
		category = model.CategoryOther
	}
	var id int64
	err := b.s.queryRow(ctx, b.tx, `
		INSERT INTO skills (skill_name, skill_key, category, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (skill_key) DO UPDATE SET
			category = CASE WHEN skills.category = 'other' THEN excluded.category ELSE skills.category END
		RETURNING skill_id`,
		strings.TrimSpace(sk.Name), key, category, b.now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving skill %q: %w", sk.Name, err)
	}
	b.skills[key] = id
	return id, nil
}

// replaceSkillLinks makes the job's links equal to skillIDs: missing links
// are added and stale ones removed.
func (b *batchLoader) replaceSkillLinks(ctx context.Context, jobID int64, skillIDs []int64) error {
	rows, err := b.s.query(ctx, b.tx, `SELECT skill_id FROM job_skills WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("reading skill links: %w", err)
	}
	existing := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning skill link: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading skill links: %w", err)
	}

	wanted := make(map[int64]bool, len(skillIDs))
	for _, id := range skillIDs {
		wanted[id] = true
		if existing[id] {
			continue
		}
		if _, err := b.s.exec(ctx, b.tx,
			`INSERT INTO job_skills (job_id, skill_id) VALUES (?, ?) ON CONFLICT (job_id, skill_id) DO NOTHING`,
			jobID, id); err != nil {
			return fmt.Errorf("linking skill %d: %w", id, err)
		}
	}
	for id := range existing {
		if wanted[id] {
			continue
		}
		if _, err := b.s.exec(ctx, b.tx, `DELETE FROM job_skills WHERE job_id = ? AND skill_id = ?`, jobID, id); err != nil {
			return fmt.Errorf("unlinking skill %d: %w", id, err)
		}
	}
	return nil
}

func skillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
