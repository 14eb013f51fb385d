package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/loross14/lost-and-found/internal/core/domain"
)

// Subscriber implements ports.CommandSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS for the scan worker.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCommands delivers scan-control commands to handler. Messages that
// fail handling are redelivered up to three times, then dropped.
func (s *Subscriber) SubscribeCommands(ctx context.Context, handler func(ctx context.Context, cmd *domain.ScanCommand) error) error {
	sub, err := s.js.Subscribe("scan.control.>", func(msg *nats.Msg) {
		var cmd domain.ScanCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &cmd); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("scan-worker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
