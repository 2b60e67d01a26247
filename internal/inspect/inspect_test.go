package inspect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staged() []model.RawPosting {
	return []model.RawPosting{
		{Source: "remoteok", ExternalID: "1", Title: "Go Engineer", Description: "Go and Kubernetes", LocationRaw: "Berlin, Germany"},
		{Source: "remoteok", ExternalID: "2", Title: "", Description: "no title"},
		{Source: "remoteok", ExternalID: "3", Title: "Data Engineer", SalaryRaw: "competitive"},
	}
}

func records(t *testing.T) []Record {
	t.Helper()
	n := normalize.New(normalize.DefaultVocabulary(), false, nil, discardLogger())
	recs, err := BuildRecords(context.Background(), n, staged(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestBuildRecordsNewestFirst(t *testing.T) {
	recs := records(t)
	if len(recs) != 3 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].Raw.ExternalID != "3" || recs[2].Raw.ExternalID != "1" {
		t.Errorf("order = %s,%s,%s", recs[0].Raw.ExternalID, recs[1].Raw.ExternalID, recs[2].Raw.ExternalID)
	}
	if !recs[1].Rejected() {
		t.Error("untitled posting should be rejected")
	}
	if len(recs[0].Degraded) != 1 || recs[0].Degraded[0] != "salary" {
		t.Errorf("degraded = %v, want [salary]", recs[0].Degraded)
	}
	if recs[2].NeedsAttention() {
		t.Errorf("clean record flagged: %+v", recs[2])
	}
	if got := Attention(recs); len(got) != 2 {
		t.Errorf("Attention() = %d records, want 2", len(got))
	}
}

func TestBuildRecordsLimit(t *testing.T) {
	n := normalize.New(normalize.DefaultVocabulary(), false, nil, discardLogger())
	recs, err := BuildRecords(context.Background(), n, staged(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Raw.ExternalID != "3" || recs[1].Raw.ExternalID != "2" {
		t.Errorf("limited records = %+v", recs)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m inspectModel, msgs ...tea.Msg) inspectModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(inspectModel)
	}
	return m
}

func TestInspectModelNavigation(t *testing.T) {
	m := newInspectModel("remoteok", records(t), nil)
	m = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = send(m, key("down"), key("down"), key("down"))
	if m.leftCursor != 2 {
		t.Errorf("leftCursor = %d, want clamped to 2", m.leftCursor)
	}

	m = send(m, key("tab"), key("enter"))
	if m.view != viewDetail || m.detail.Raw.ExternalID != "3" {
		t.Fatalf("detail = %q in view %d", m.detail.Raw.ExternalID, m.view)
	}
	if !strings.Contains(m.renderDetail(), "degraded: salary") {
		t.Errorf("detail missing degraded banner:\n%s", m.renderDetail())
	}

	m = send(m, key("esc"))
	if m.view != viewList {
		t.Error("esc should return to the list")
	}
}

type stubTagger struct {
	terms []string
	err   error
}

func (s stubTagger) ExtractTerms(context.Context, string, string) ([]string, error) {
	return s.terms, s.err
}

func TestInspectModelTagger(t *testing.T) {
	m := newInspectModel("remoteok", records(t), stubTagger{terms: []string{"gRPC"}})
	m = send(m, tea.WindowSizeMsg{Width: 120, Height: 40}, key("enter"))

	next, cmd := m.Update(key("s"))
	m = next.(inspectModel)
	if !m.tagLoading || cmd == nil {
		t.Fatal("s should start a tagger call")
	}
	m = send(m, cmd())
	if m.tagLoading || !strings.Contains(m.renderDetail(), "gRPC") {
		t.Errorf("tagger terms not shown:\n%s", m.renderDetail())
	}

	m = newInspectModel("remoteok", records(t), stubTagger{err: errors.New("quota")})
	m = send(m, tea.WindowSizeMsg{Width: 120, Height: 40}, key("enter"))
	next, cmd = m.Update(key("s"))
	m = send(next.(inspectModel), cmd())
	if !strings.Contains(m.renderDetail(), "tagger failed: quota") {
		t.Errorf("tagger error not shown:\n%s", m.renderDetail())
	}
}

func TestFmtSalary(t *testing.T) {
	lo, hi := 100000.0, 140000.0
	tests := []struct {
		name string
		in   model.Salary
		want string
	}{
		{"range", model.Salary{Min: &lo, Max: &hi, Currency: "USD", Period: "year"}, "USD 100,000 - 140,000 / year"},
		{"single", model.Salary{Min: &lo, Max: &lo, Currency: "EUR"}, "EUR 100,000"},
		{"max only", model.Salary{Max: &hi}, "140,000"},
		{"unknown", model.Salary{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fmtSalary(tt.in); got != tt.want {
				t.Errorf("fmtSalary() = %q, want %q", got, tt.want)
			}
		})
	}
}
