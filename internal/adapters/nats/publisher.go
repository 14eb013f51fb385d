package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/loross14/lost-and-found/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
//
// Subjects:
//
//	scan.progress.<jobID>  per-tile progress events
//	scan.finding.<jobID>   accepted potential sites
//	scan.control.<action>  run commands for the scan worker
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream, and ensures the scan
// streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "SCAN_EVENTS",
			Subjects:  []string{"scan.progress.>", "scan.finding.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "SCAN_CONTROL",
			Subjects:  []string{"scan.control.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishProgress(ctx context.Context, ev *domain.ScanProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("scan.progress."+ev.JobID, data)
	return err
}

func (p *Publisher) PublishSiteFound(ctx context.Context, site *domain.PotentialSite) error {
	data, err := json.Marshal(site)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("scan.finding."+site.JobID, data)
	return err
}

func (p *Publisher) PublishCommand(ctx context.Context, cmd *domain.ScanCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("scan.control."+string(cmd.Action), data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
