package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure SlackReporter implements model.Reporter.
var _ model.Reporter = (*SlackReporter)(nil)

// SlackReporter posts run reports to a Slack channel via Incoming Webhooks.
type SlackReporter struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackReporter returns a reporter that posts each run summary to Slack.
func NewSlackReporter(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Report sends the run as one Block Kit message. A 429 is retried once after
// the Retry-After delay.
func (s *SlackReporter) Report(ctx context.Context, rep model.RunReport) error {
	body, err := json.Marshal(buildPayload(rep))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
		if status, _, err = s.post(ctx, body); err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack report sent", "run_id", rep.RunID)
	return nil
}

func (s *SlackReporter) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildPayload(rep model.RunReport) slackPayload {
	icon := "✅"
	if !rep.Healthy() {
		icon = "⚠️"
	}
	title := icon + " jobpulse run " + shortID(rep.RunID)
	if rep.DryRun {
		title += " (dry run)"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Normalized:*\n" + humanize.Comma(int64(rep.Normalize.Normalized))},
				{Type: "mrkdwn", Text: "*Loaded:*\n" + humanize.Comma(int64(rep.Load.Loaded))},
				{Type: "mrkdwn", Text: "*Rejected:*\n" + humanize.Comma(int64(rep.Normalize.Rejected))},
				{Type: "mrkdwn", Text: "*Failed batches:*\n" + strconv.Itoa(rep.Load.FailedBatches)},
			},
		},
	}

	var lines []string
	for _, s := range rep.Sources {
		if s.Error != "" {
			lines = append(lines, fmt.Sprintf("• *%s*: failed: %s", s.Source, s.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("• *%s*: %s staged, %s skipped (%d pages)",
			s.Source, humanize.Comma(int64(s.Staged)), humanize.Comma(int64(s.Skipped)), s.Pages))
	}
	if len(lines) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.Join(lines, "\n")},
		})
	}

	if rep.SnapshotError != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Snapshot:* " + rep.SnapshotError},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "Finished " + rep.FinishedAt.UTC().Format(time.RFC1123) +
				" in " + rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second).String()}},
		},
		slackBlock{Type: "divider"},
	)
	return slackPayload{Blocks: blocks}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
