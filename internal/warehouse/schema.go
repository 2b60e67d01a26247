package warehouse

import "strings"

// schemaTemplate is shared by both dialects. Tokens in braces are replaced
// with the dialect's column types.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS companies (
	company_id      {ID},
	company_name    TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	industry        TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	created_at      {TIME} NOT NULL,
	updated_at      {TIME} NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS companies_normalized_name_key ON companies (normalized_name);

CREATE TABLE IF NOT EXISTS locations (
	location_id {ID},
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	is_remote   {BOOL} NOT NULL,
	created_at  {TIME} NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS locations_tuple_key ON locations (city, state, country, is_remote);

CREATE TABLE IF NOT EXISTS skills (
	skill_id   {ID},
	skill_name TEXT NOT NULL,
	skill_key  TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'other',
	created_at {TIME} NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS skills_skill_key ON skills (skill_key);

CREATE TABLE IF NOT EXISTS jobs (
	job_id          {ID},
	external_job_id TEXT NOT NULL,
	source          TEXT NOT NULL,
	title           TEXT NOT NULL,
	company_id      BIGINT REFERENCES companies (company_id),
	location_id     BIGINT NOT NULL REFERENCES locations (location_id),
	description     TEXT NOT NULL DEFAULT '',
	salary_min      {FLOAT},
	salary_max      {FLOAT},
	salary_currency TEXT,
	salary_period   TEXT,
	job_type        TEXT,
	url             TEXT NOT NULL DEFAULT '',
	posted_date     {TIME},
	scraped_date    {TIME} NOT NULL,
	created_at      {TIME} NOT NULL,
	updated_at      {TIME} NOT NULL,
	CHECK (salary_min IS NULL OR salary_max IS NULL OR salary_max >= salary_min)
);
CREATE UNIQUE INDEX IF NOT EXISTS jobs_source_external_key ON jobs (source, external_job_id);
CREATE INDEX IF NOT EXISTS jobs_scraped_date_idx ON jobs (scraped_date);

CREATE TABLE IF NOT EXISTS job_skills (
	job_id   BIGINT NOT NULL REFERENCES jobs (job_id),
	skill_id BIGINT NOT NULL REFERENCES skills (skill_id),
	PRIMARY KEY (job_id, skill_id)
);
CREATE INDEX IF NOT EXISTS job_skills_skill_idx ON job_skills (skill_id);

CREATE TABLE IF NOT EXISTS trending_insights (
	insight_id    {ID},
	skill_id      BIGINT NOT NULL REFERENCES skills (skill_id),
	job_count     INTEGER NOT NULL,
	growth_rate   {FLOAT} NOT NULL,
	time_period   TEXT NOT NULL,
	snapshot_date TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS trending_insights_key ON trending_insights (skill_id, time_period, snapshot_date);

CREATE TABLE IF NOT EXISTS ingestion_checkpoints (
	source     TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at {TIME} NOT NULL
);
`

// schemaStatements returns the DDL for d split into single statements.
func schemaStatements(d dialect) []string {
	ddl := strings.NewReplacer(
		"{ID}", d.idColumn,
		"{TIME}", d.timeType,
		"{BOOL}", d.boolType,
		"{FLOAT}", d.floatType,
	).Replace(schemaTemplate)

	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
