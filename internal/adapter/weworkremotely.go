package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const weWorkRemotelyBaseURL = "https://weworkremotely.com/categories"

// DefaultWeWorkRemotelyCategories are the feeds read when none are configured.
var DefaultWeWorkRemotelyCategories = []string{
	"remote-programming-jobs",
	"remote-design-jobs",
	"remote-marketing-jobs",
	"remote-sales-and-marketing-jobs",
	"remote-customer-support-jobs",
	"remote-management-and-finance-jobs",
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Region      string `xml:"region"`
	Type        string `xml:"type"`
	Author      string `xml:"author"`
}

// WeWorkRemotelyAdapter reads WeWorkRemotely category RSS feeds. Each
// configured category is one page.
type WeWorkRemotelyAdapter struct {
	name       string
	baseURL    string
	categories []string
	http       fetcher
	now        func() time.Time
}

// NewWeWorkRemotelyAdapter creates an adapter over the given categories.
// Empty categories fall back to DefaultWeWorkRemotelyCategories.
func NewWeWorkRemotelyAdapter(name, baseURL string, categories []string, client *http.Client, userAgent string) *WeWorkRemotelyAdapter {
	if baseURL == "" {
		baseURL = weWorkRemotelyBaseURL
	}
	if len(categories) == 0 {
		categories = DefaultWeWorkRemotelyCategories
	}
	return &WeWorkRemotelyAdapter{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		categories: categories,
		http:       fetcher{client: client, userAgent: userAgent},
		now:        time.Now,
	}
}

func (a *WeWorkRemotelyAdapter) Name() string { return a.name }

// FetchPage reads the feed for the page'th category.
func (a *WeWorkRemotelyAdapter) FetchPage(ctx context.Context, page int) (model.Page, error) {
	if page < 1 || page > len(a.categories) {
		return model.Page{}, nil
	}
	category := a.categories[page-1]
	url := fmt.Sprintf("%s/%s.rss", a.baseURL, category)

	body, err := a.http.get(ctx, url, "application/rss+xml, application/xml;q=0.9")
	if err != nil {
		return model.Page{}, fmt.Errorf("weworkremotely fetch %s: %w", category, err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return model.Page{}, fmt.Errorf("weworkremotely decode %s: %w", category, err)
	}

	scraped := a.now().UTC()
	postings := make([]model.RawPosting, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		postings = append(postings, a.parse(item, scraped))
	}
	return model.Page{Postings: postings, HasMore: page < len(a.categories)}, nil
}

func (a *WeWorkRemotelyAdapter) parse(item rssItem, scraped time.Time) model.RawPosting {
	company, title := splitWWRTitle(item.Title)
	if item.Author != "" {
		company = item.Author
	}

	p := model.RawPosting{
		Source:      a.name,
		ExternalID:  firstNonEmpty(item.GUID, item.Link),
		Title:       title,
		CompanyRaw:  company,
		LocationRaw: firstNonEmpty(item.Region, "Remote"),
		Description: item.Description,
		URL:         strings.TrimSpace(item.Link),
		PostedDate:  strings.TrimSpace(item.PubDate),
		ScrapedDate: scraped,
		JobType:     strings.TrimSpace(item.Type),
	}
	if p.ExternalID == "" {
		p.ExternalID = model.DerivedID(a.name, title, company)
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, p.PostedDate); err == nil {
			p.PostedAt = &t
			break
		}
	}
	return p
}

// splitWWRTitle splits "Company: Role" item titles. Titles without a colon
// fall back to the trailing dash segment as the company.
func splitWWRTitle(raw string) (company, title string) {
	raw = strings.TrimSpace(raw)
	if c, t, ok := strings.Cut(raw, ": "); ok {
		return strings.TrimSpace(c), strings.TrimSpace(t)
	}
	for _, sep := range []string{" — ", " - "} {
		if i := strings.LastIndex(raw, sep); i > 0 {
			return strings.TrimSpace(raw[i+len(sep):]), strings.TrimSpace(raw[:i])
		}
	}
	return "", raw
}
