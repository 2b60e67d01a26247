package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// FactFilter narrows the facts read from the warehouse. Zero values mean no
// restriction. Since is inclusive and Until exclusive, both applied to the
// activity date.
type FactFilter struct {
	Source string
	Since  time.Time
	Until  time.Time
}

func (f FactFilter) includes(t time.Time) bool {
	if !f.Since.IsZero() && t.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !t.Before(f.Until) {
		return false
	}
	return true
}

// where renders f as a WHERE clause over jobs aliased j. Times are bound
// in UTC, the zone every job timestamp is stored in.
func (f FactFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Source != "" {
		conds = append(conds, "j.source = ?")
		args = append(args, f.Source)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "COALESCE(j.posted_date, j.scraped_date) >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "COALESCE(j.posted_date, j.scraped_date) < ?")
		args = append(args, f.Until.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Facts returns one JobFact per loaded job matching f, ordered by job ID.
// Only jobs inside the window and their skill links are read.
func (s *Store) Facts(ctx context.Context, f FactFilter) ([]model.JobFact, error) {
	where, args := f.where()
	query := `
		SELECT j.job_id, j.source, j.posted_date, j.scraped_date,
			l.city, l.state, l.country, l.is_remote,
			j.salary_min, j.salary_max, j.salary_currency, j.salary_period
		FROM jobs j
		JOIN locations l ON l.location_id = j.location_id` + where + `
		ORDER BY j.job_id`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}

	var facts []model.JobFact
	index := make(map[int64]int)
	for rows.Next() {
		var (
			fact             model.JobFact
			posted           sql.NullTime
			scraped          time.Time
			minSal, maxSal   sql.NullFloat64
			currency, period sql.NullString
		)
		if err := rows.Scan(&fact.JobID, &fact.Source, &posted, &scraped,
			&fact.Location.City, &fact.Location.State, &fact.Location.Country, &fact.Location.IsRemote,
			&minSal, &maxSal, &currency, &period); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		fact.ActivityDate = scraped.UTC()
		if posted.Valid {
			fact.ActivityDate = posted.Time.UTC()
		}
		if !f.includes(fact.ActivityDate) {
			continue
		}
		if minSal.Valid {
			v := minSal.Float64
			fact.Salary.Min = &v
		}
		if maxSal.Valid {
			v := maxSal.Float64
			fact.Salary.Max = &v
		}
		fact.Salary.Currency = currency.String
		fact.Salary.Period = period.String

		index[fact.JobID] = len(facts)
		facts = append(facts, fact)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading facts: %w", err)
	}
	if len(facts) == 0 {
		return nil, nil
	}

	links, err := s.query(ctx, s.db, `
		SELECT js.job_id, s.skill_name
		FROM job_skills js
		JOIN skills s ON s.skill_id = js.skill_id
		WHERE js.job_id IN (SELECT j.job_id FROM jobs j`+where+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying job skills: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var jobID int64
		var name string
		if err := links.Scan(&jobID, &name); err != nil {
			return nil, fmt.Errorf("scanning job skill: %w", err)
		}
		if i, ok := index[jobID]; ok {
			facts[i].Skills = append(facts[i].Skills, name)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("reading job skills: %w", err)
	}

	for i := range facts {
		sort.Strings(facts[i].Skills)
	}
	return facts, nil
}
