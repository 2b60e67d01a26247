package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobpulse/internal/model"
)

const naukriBaseURL = "https://www.naukri.com"

// NaukriAdapter scrapes Naukri search result pages for one role.
type NaukriAdapter struct {
	name    string
	baseURL string
	role    string
	http    fetcher
	now     func() time.Time
}

// NewNaukriAdapter creates a scraper for "<role>-jobs-<page>" search pages.
func NewNaukriAdapter(name, baseURL, role string, client *http.Client, userAgent string) *NaukriAdapter {
	if baseURL == "" {
		baseURL = naukriBaseURL
	}
	return &NaukriAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		role:    role,
		http:    fetcher{client: client, userAgent: userAgent},
		now:     time.Now,
	}
}

func (a *NaukriAdapter) Name() string { return a.name }

// FetchPage parses the job cards on one search page. A page without cards
// ends pagination.
func (a *NaukriAdapter) FetchPage(ctx context.Context, page int) (model.Page, error) {
	url := fmt.Sprintf("%s/%s-jobs-%d", a.baseURL, a.role, page)

	body, err := a.http.get(ctx, url, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return model.Page{}, fmt.Errorf("naukri fetch page %d: %w", page, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.Page{}, fmt.Errorf("naukri parse page %d: %w", page, err)
	}

	scraped := a.now().UTC()
	var postings []model.RawPosting
	doc.Find("article.jobTuple").Each(func(_ int, card *goquery.Selection) {
		if p, ok := a.parseCard(card, scraped); ok {
			postings = append(postings, p)
		}
	})

	return model.Page{Postings: postings, HasMore: len(postings) > 0}, nil
}

func (a *NaukriAdapter) parseCard(card *goquery.Selection, scraped time.Time) (model.RawPosting, bool) {
	titleLink := card.Find("a.title").First()
	title := cardText(titleLink)
	if title == "" {
		return model.RawPosting{}, false
	}
	href, _ := titleLink.Attr("href")
	company := cardText(card.Find("a.subTitle").First())

	location := cardText(card.Find("li.location").First())
	if t, ok := card.Find("li.location span[title]").First().Attr("title"); ok && strings.TrimSpace(t) != "" {
		location = strings.TrimSpace(t)
	}

	id, _ := card.Attr("data-job-id")
	id = firstNonEmpty(id, href)
	if id == "" {
		id = model.DerivedID(a.name, title, company)
	}

	return model.RawPosting{
		Source:      a.name,
		ExternalID:  id,
		Title:       title,
		CompanyRaw:  company,
		LocationRaw: location,
		Description: cardText(card.Find("div.job-description").First()),
		SalaryRaw:   cardText(card.Find("li.salary").First()),
		URL:         strings.TrimSpace(href),
		PostedDate:  cardText(card.Find("span.job-post-day").First()),
		ScrapedDate: scraped,
	}, true
}

func cardText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
