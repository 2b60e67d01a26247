package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const remoteOKBaseURL = "https://remoteok.com/api"

// remoteOKJob is one entry of the RemoteOK API array. The first element of
// the array is a legal notice with no id.
type remoteOKJob struct {
	Legal       string     `json:"legal"`
	ID          flexibleID `json:"id"`
	Epoch       int64      `json:"epoch"`
	Date        string     `json:"date"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	SalaryMin   float64    `json:"salary_min"`
	SalaryMax   float64    `json:"salary_max"`
	URL         string     `json:"url"`
	ApplyURL    string     `json:"apply_url"`
}

// RemoteOKAdapter reads the RemoteOK public JSON API. The API is a single page.
type RemoteOKAdapter struct {
	name    string
	baseURL string
	http    fetcher
	now     func() time.Time
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK API. An empty
// baseURL uses the public endpoint.
func NewRemoteOKAdapter(name, baseURL string, client *http.Client, userAgent string) *RemoteOKAdapter {
	if baseURL == "" {
		baseURL = remoteOKBaseURL
	}
	return &RemoteOKAdapter{
		name:    name,
		baseURL: baseURL,
		http:    fetcher{client: client, userAgent: userAgent},
		now:     time.Now,
	}
}

func (a *RemoteOKAdapter) Name() string { return a.name }

// FetchPage returns every posting in the feed on page 1 and nothing after.
func (a *RemoteOKAdapter) FetchPage(ctx context.Context, page int) (model.Page, error) {
	if page > 1 {
		return model.Page{}, nil
	}

	body, err := a.http.get(ctx, a.baseURL, "application/json")
	if err != nil {
		return model.Page{}, fmt.Errorf("remoteok fetch: %w", err)
	}

	var entries []remoteOKJob
	if err := json.Unmarshal(body, &entries); err != nil {
		return model.Page{}, fmt.Errorf("remoteok decode: %w", err)
	}

	scraped := a.now().UTC()
	postings := make([]model.RawPosting, 0, len(entries))
	for _, e := range entries {
		if e.Legal != "" || e.ID == "" {
			continue
		}
		postings = append(postings, a.parse(e, scraped))
	}
	return model.Page{Postings: postings}, nil
}

func (a *RemoteOKAdapter) parse(e remoteOKJob, scraped time.Time) model.RawPosting {
	p := model.RawPosting{
		Source:      a.name,
		ExternalID:  string(e.ID),
		Title:       e.Position,
		CompanyRaw:  e.Company,
		LocationRaw: firstNonEmpty(e.Location, "Remote"),
		Description: e.Description,
		SalaryRaw:   remoteOKSalary(e.SalaryMin, e.SalaryMax),
		URL:         firstNonEmpty(e.URL, e.ApplyURL),
		PostedDate:  e.Date,
		ScrapedDate: scraped,
		Tags:        e.Tags,
	}

	switch {
	case e.Epoch > 0:
		t := time.Unix(e.Epoch, 0).UTC()
		p.PostedAt = &t
		if p.PostedDate == "" {
			p.PostedDate = t.Format(time.RFC3339)
		}
	case e.Date != "":
		if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
			p.PostedAt = &t
		}
	}
	return p
}

// remoteOKSalary renders the API's annual USD bounds as salary text.
func remoteOKSalary(min, max float64) string {
	switch {
	case min > 0 && max > 0:
		return fmt.Sprintf("$%.0f - $%.0f/year", min, max)
	case min > 0:
		return fmt.Sprintf("$%.0f/year", min)
	case max > 0:
		return fmt.Sprintf("$%.0f/year", max)
	}
	return ""
}
