package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobpulse/internal/model"
)

const naukriPage = `<html><body>
<div class="list">
  <article class="jobTuple" data-job-id="090326001">
    <a class="title" href="https://www.naukri.com/job-listings-golang-developer-acme-090326001">Golang Developer</a>
    <a class="subTitle">Acme Technologies</a>
    <ul>
      <li class="salary"><span>10-15 Lacs PA</span></li>
      <li class="location"><span title="Bengaluru, Hyderabad">Bengaluru, Hyderab...</span></li>
    </ul>
    <div class="job-description">Experience with Go, gRPC and Kubernetes.</div>
    <span class="job-post-day">3 Days Ago</span>
  </article>
  <article class="jobTuple">
    <a class="title">  Backend   Engineer </a>
    <a class="subTitle">Beta</a>
    <li class="location">Pune</li>
  </article>
  <article class="jobTuple">
    <span>card without a title</span>
  </article>
</div>
</body></html>`

func TestNaukri_FetchPage(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(naukriPage))
	}))
	defer srv.Close()

	a := NewNaukriAdapter("naukri", "", "golang-developer", rewriteClient(srv), "ua")
	a.now = fixedNow

	page, err := a.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if path != "/golang-developer-jobs-2" {
		t.Errorf("path = %q", path)
	}
	if !page.HasMore {
		t.Error("a page with cards should report HasMore")
	}
	if len(page.Postings) != 2 {
		t.Fatalf("expected 2 postings (untitled card skipped), got %d", len(page.Postings))
	}

	p := page.Postings[0]
	if p.ExternalID != "090326001" {
		t.Errorf("ExternalID = %q", p.ExternalID)
	}
	if p.Title != "Golang Developer" || p.CompanyRaw != "Acme Technologies" {
		t.Errorf("title/company = %q/%q", p.Title, p.CompanyRaw)
	}
	if p.LocationRaw != "Bengaluru, Hyderabad" {
		t.Errorf("LocationRaw = %q, want full title attribute", p.LocationRaw)
	}
	if p.SalaryRaw != "10-15 Lacs PA" {
		t.Errorf("SalaryRaw = %q", p.SalaryRaw)
	}
	if p.PostedDate != "3 Days Ago" {
		t.Errorf("PostedDate = %q", p.PostedDate)
	}

	q := page.Postings[1]
	if q.Title != "Backend Engineer" {
		t.Errorf("title whitespace should collapse, got %q", q.Title)
	}
	if q.ExternalID != model.DerivedID("naukri", "Backend Engineer", "Beta") {
		t.Errorf("card without id or link should get a fallback id, got %q", q.ExternalID)
	}
}

func TestNaukri_EmptyPageEndsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>No jobs found</p></body></html>`))
	}))
	defer srv.Close()

	a := NewNaukriAdapter("naukri", srv.URL, "rust-developer", srv.Client(), "ua")
	page, err := a.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.HasMore || len(page.Postings) != 0 {
		t.Errorf("page = %+v", page)
	}
}
