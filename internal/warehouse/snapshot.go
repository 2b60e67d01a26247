package warehouse

import (
	"context"
	"fmt"
	"time"
)

// TrendRow is one persisted trending insight.
type TrendRow struct {
	Skill      string
	JobCount   int
	GrowthRate float64
}

const snapshotDateLayout = "2006-01-02"

// SaveTrendingSnapshot records trending skills for period on date. Saving the
// same period and date again overwrites the earlier values.
func (s *Store) SaveTrendingSnapshot(ctx context.Context, period string, date time.Time, rows []TrendRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	day := date.UTC().Format(snapshotDateLayout)
	for _, r := range rows {
		var skillID int64
		err := s.queryRow(ctx, tx, `SELECT skill_id FROM skills WHERE skill_key = ?`, skillKey(r.Skill)).Scan(&skillID)
		if err != nil {
			return fmt.Errorf("resolving snapshot skill %q: %w", r.Skill, err)
		}
		if _, err := s.exec(ctx, tx, `
			INSERT INTO trending_insights (skill_id, job_count, growth_rate, time_period, snapshot_date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (skill_id, time_period, snapshot_date) DO UPDATE SET
				job_count = excluded.job_count,
				growth_rate = excluded.growth_rate`,
			skillID, r.JobCount, r.GrowthRate, period, day); err != nil {
			return fmt.Errorf("saving snapshot for %q: %w", r.Skill, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// TrendingSnapshot returns the rows saved for period on date, highest job
// count first.
func (s *Store) TrendingSnapshot(ctx context.Context, period string, date time.Time) ([]TrendRow, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT s.skill_name, t.job_count, t.growth_rate
		FROM trending_insights t
		JOIN skills s ON s.skill_id = t.skill_id
		WHERE t.time_period = ? AND t.snapshot_date = ?
		ORDER BY t.job_count DESC, s.skill_name`,
		period, date.UTC().Format(snapshotDateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var out []TrendRow
	for rows.Next() {
		var r TrendRow
		if err := rows.Scan(&r.Skill, &r.JobCount, &r.GrowthRate); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
