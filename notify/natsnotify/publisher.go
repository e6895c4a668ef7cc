// Package natsnotify publishes notifications as JSON messages on NATS subjects.
package natsnotify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nasermirzaei89/bazaar/notify"
	"github.com/nats-io/nats.go"
)

type Publisher struct {
	conn   *nats.Conn
	prefix string
}

var _ notify.Notifier = (*Publisher)(nil)

// Connect dials the NATS server at url. Events are published on "<prefix>.<event type>".
func Connect(url, prefix string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.Name("bazaar"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return NewPublisher(conn, prefix), nil
}

func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}

	return p.prefix + "." + eventType
}

func (p *Publisher) Notify(_ context.Context, event notify.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.conn.Publish(p.Subject(event.Type), data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}

	return nil
}
