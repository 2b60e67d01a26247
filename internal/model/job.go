package model

import (
	"context"
	"time"
)

// RawPosting is a job posting as scraped from a source, before any cleaning.
// One RawPosting is one line in the source's staging file.
type RawPosting struct {
	Source      string    `json:"source"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	CompanyRaw  string    `json:"company_raw"`
	LocationRaw string    `json:"location_raw"`
	Description string    `json:"description"`
	SalaryRaw   string    `json:"salary_raw"`
	URL         string    `json:"url"`
	PostedDate  string    `json:"posted_date"` // raw, parsed by the normalizer
	ScrapedDate time.Time `json:"scraped_date"`

	// Optional source hints.
	Tags    []string `json:"tags,omitempty"`     // remoteok tags
	JobType string   `json:"job_type,omitempty"` // when the source reports one

	// PostedAt is the adapter's own parse of PostedDate, used only for
	// checkpoint ordering. Never staged.
	PostedAt *time.Time `json:"-"`
}

// Salary is a parsed compensation range. A nil Min/Max and empty
// Currency/Period mean the value could not be determined.
type Salary struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency,omitempty"`
	Period   string   `json:"period,omitempty"`
}

// Known reports whether any numeric salary information was parsed.
func (s Salary) Known() bool {
	return s.Min != nil || s.Max != nil
}

// Company is the company dimension. Companies are deduplicated by NormalizedName.
type Company struct {
	Name           string
	NormalizedName string
	Industry       string
	Website        string
}

// Location is the location dimension, deduplicated by the full tuple.
// Unknown components are empty strings.
type Location struct {
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	IsRemote bool   `json:"is_remote"`
}

// UnknownLocation is the placeholder row for locations that could not be parsed.
var UnknownLocation = Location{City: "Unknown"}

// Skill categories.
const (
	CategoryLanguage  = "language"
	CategoryFramework = "framework"
	CategoryDatabase  = "database"
	CategoryCloud     = "cloud"
	CategoryTool      = "tool"
	CategoryOther     = "other"
)

// Skill is a named skill with its category.
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CanonicalJob is a cleaned posting ready to be loaded into the warehouse.
// It maps 1:1 to a jobs row keyed by (Source, ExternalID).
type CanonicalJob struct {
	Source      string
	ExternalID  string
	Title       string
	Company     Company
	Location    Location
	Description string
	Salary      Salary
	JobType     string
	URL         string
	Skills      []Skill
	PostedDate  *time.Time
	ScrapedDate time.Time
}

// ActivityDate is the date analytics attribute a job to: the posted date
// when known, otherwise the scrape date.
func (j CanonicalJob) ActivityDate() time.Time {
	if j.PostedDate != nil {
		return *j.PostedDate
	}
	return j.ScrapedDate
}

// JobFact is the flattened read model the analytics engine works on.
type JobFact struct {
	JobID        int64
	Source       string
	ActivityDate time.Time
	Skills       []string
	Location     Location
	Salary       Salary
}

// Page is one fetched listing page.
type Page struct {
	Postings []RawPosting
	HasMore  bool
}

// Source fetches listing pages from one external job board. Page numbers
// start at 1. Parsing of individual entries is internal to each Source.
type Source interface {
	Name() string
	FetchPage(ctx context.Context, page int) (Page, error)
}

// CheckpointStore persists per-source checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, source string) (Checkpoint, error)
	Put(ctx context.Context, cp Checkpoint) error
}

// PostingFilter decides whether a raw posting should be staged.
type PostingFilter interface {
	Match(p RawPosting) bool
}

// Reporter delivers a pipeline run report to operators.
type Reporter interface {
	Report(ctx context.Context, r RunReport) error
}
