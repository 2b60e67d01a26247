package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const remoteOKPayload = `[
	{"legal": "API Terms of Service: please link back to RemoteOK"},
	{
		"id": "1100123",
		"epoch": 1772000000,
		"date": "2026-02-25T06:13:20+00:00",
		"company": "Acme",
		"position": "Senior Go Engineer",
		"tags": ["golang", "kubernetes"],
		"description": "<p>We use Go and Postgres.</p>",
		"location": "Worldwide",
		"salary_min": 120000,
		"salary_max": 150000,
		"url": "https://remoteok.com/remote-jobs/1100123"
	},
	{
		"id": 1100124,
		"epoch": 1772000100,
		"company": "Beta",
		"position": "Data Engineer",
		"description": "Spark",
		"location": "",
		"apply_url": "https://beta.example/apply"
	}
]`

func TestRemoteOK_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(remoteOKPayload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter("remoteok", "", rewriteClient(srv), "ua")
	a.now = fixedNow

	page, err := a.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.HasMore {
		t.Error("remoteok is a single page")
	}
	if len(page.Postings) != 2 {
		t.Fatalf("expected 2 postings (legal notice skipped), got %d", len(page.Postings))
	}

	p := page.Postings[0]
	if p.ExternalID != "1100123" || p.Source != "remoteok" {
		t.Errorf("id/source = %q/%q", p.ExternalID, p.Source)
	}
	if p.Title != "Senior Go Engineer" || p.CompanyRaw != "Acme" {
		t.Errorf("title/company = %q/%q", p.Title, p.CompanyRaw)
	}
	if p.SalaryRaw != "$120000 - $150000/year" {
		t.Errorf("SalaryRaw = %q", p.SalaryRaw)
	}
	if len(p.Tags) != 2 {
		t.Errorf("Tags = %v", p.Tags)
	}
	if p.PostedAt == nil || p.PostedAt.Unix() != 1772000000 {
		t.Errorf("PostedAt = %v", p.PostedAt)
	}
	if !p.ScrapedDate.Equal(fixedNow()) {
		t.Errorf("ScrapedDate = %v", p.ScrapedDate)
	}

	q := page.Postings[1]
	if q.ExternalID != "1100124" {
		t.Errorf("numeric id = %q, want 1100124", q.ExternalID)
	}
	if q.LocationRaw != "Remote" {
		t.Errorf("empty location should default to Remote, got %q", q.LocationRaw)
	}
	if q.URL != "https://beta.example/apply" {
		t.Errorf("URL = %q", q.URL)
	}
	if q.PostedDate == "" {
		t.Error("PostedDate should be derived from epoch")
	}
}

func TestRemoteOK_SecondPageEmpty(t *testing.T) {
	a := NewRemoteOKAdapter("remoteok", "http://unused.invalid", http.DefaultClient, "ua")
	page, err := a.FetchPage(context.Background(), 2)
	if err != nil || len(page.Postings) != 0 {
		t.Fatalf("page 2 = %+v, %v", page, err)
	}
}

func TestRemoteOK_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter("remoteok", srv.URL, srv.Client(), "ua")
	if _, err := a.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestRemoteOK_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter("remoteok", srv.URL, srv.Client(), "ua")
	if _, err := a.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
