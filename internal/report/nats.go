package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure NATSReporter implements model.Reporter.
var _ model.Reporter = (*NATSReporter)(nil)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSReporter publishes each run report as JSON on a NATS subject.
type NATSReporter struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	logger  *slog.Logger
}

// NewNATSReporter connects to the NATS server at url.
func NewNATSReporter(url, subject string, logger *slog.Logger) (*NATSReporter, error) {
	conn, err := nats.Connect(url,
		nats.Name("jobpulse"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &NATSReporter{conn: conn, pub: conn, subject: subject, logger: logger}, nil
}

// Report publishes rep and flushes so delivery failures surface here.
func (r *NATSReporter) Report(ctx context.Context, rep model.RunReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := r.pub.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publishing to NATS: %w", err)
	}
	if r.conn != nil {
		if err := r.conn.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("flushing NATS: %w", err)
		}
	}
	r.logger.Debug("published run report", "run_id", rep.RunID, "subject", r.subject, "bytes", len(data))
	return nil
}

// Close drains the connection.
func (r *NATSReporter) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Drain()
}
