package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const yCombinatorBaseURL = "https://www.workatastartup.com/api/v1/jobs"

type ycJob struct {
	ID                 flexibleID `json:"id"`
	Title              string     `json:"title"`
	CompanyName        string     `json:"company_name"`
	Location           string     `json:"location"`
	Description        string     `json:"description"`
	CompanyDescription string     `json:"company_description"`
	JobType            string     `json:"job_type"`
	URL                string     `json:"url"`
	PublishedAt        string     `json:"published_at"`
	Compensation       struct {
		Salary string `json:"salary"`
	} `json:"compensation"`
}

// YCombinatorAdapter reads the Work at a Startup jobs API. The API is a
// single page, returned newest first.
type YCombinatorAdapter struct {
	name    string
	baseURL string
	http    fetcher
	now     func() time.Time
}

// NewYCombinatorAdapter creates an adapter for the Work at a Startup API.
func NewYCombinatorAdapter(name, baseURL string, client *http.Client, userAgent string) *YCombinatorAdapter {
	if baseURL == "" {
		baseURL = yCombinatorBaseURL
	}
	return &YCombinatorAdapter{
		name:    name,
		baseURL: baseURL,
		http:    fetcher{client: client, userAgent: userAgent},
		now:     time.Now,
	}
}

func (a *YCombinatorAdapter) Name() string { return a.name }

func (a *YCombinatorAdapter) FetchPage(ctx context.Context, page int) (model.Page, error) {
	if page > 1 {
		return model.Page{}, nil
	}

	body, err := a.http.get(ctx, a.baseURL, "application/json")
	if err != nil {
		return model.Page{}, fmt.Errorf("ycombinator fetch: %w", err)
	}

	var jobs []ycJob
	if err := json.Unmarshal(body, &jobs); err != nil {
		// Some deployments wrap the list in {"jobs": [...]}.
		var wrapped struct {
			Jobs []ycJob `json:"jobs"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return model.Page{}, fmt.Errorf("ycombinator decode: %w", err)
		}
		jobs = wrapped.Jobs
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].PublishedAt > jobs[j].PublishedAt
	})

	scraped := a.now().UTC()
	postings := make([]model.RawPosting, 0, len(jobs))
	for _, j := range jobs {
		if j.ID == "" {
			continue
		}
		postings = append(postings, a.parse(j, scraped))
	}
	return model.Page{Postings: postings}, nil
}

func (a *YCombinatorAdapter) parse(j ycJob, scraped time.Time) model.RawPosting {
	url := strings.TrimSpace(j.URL)
	if url == "" {
		url = "https://www.workatastartup.com/jobs/" + string(j.ID)
	}
	p := model.RawPosting{
		Source:      a.name,
		ExternalID:  string(j.ID),
		Title:       j.Title,
		CompanyRaw:  j.CompanyName,
		LocationRaw: j.Location,
		Description: firstNonEmpty(j.Description, j.CompanyDescription),
		SalaryRaw:   j.Compensation.Salary,
		URL:         url,
		PostedDate:  j.PublishedAt,
		ScrapedDate: scraped,
		JobType:     j.JobType,
	}
	if t, err := time.Parse(time.RFC3339, j.PublishedAt); err == nil {
		p.PostedAt = &t
	}
	return p
}
