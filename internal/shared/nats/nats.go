package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/pagecraft/pagecraft/internal/shared/config"
)

// Client wraps the NATS connection with the small surface the services need.
type Client struct {
	conn *nats.Conn
}

// NewClient creates a new NATS client with the provided configuration
func NewClient(cfg *config.NATSConfig, name string) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("NATS configuration is required")
	}
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("at least one NATS URL is required")
	}

	opts := []nats.Option{
		nats.Name("pagecraft-" + name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("connected to NATS", "url", cfg.URLs[0], "client", name)

	return &Client{conn: conn}, nil
}

// Publish publishes a message to the given subject
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// PublishJSON marshals v and publishes it to the given subject
func (c *Client) PublishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", subject, err)
	}
	return c.conn.Publish(subject, data)
}

// Subscribe creates a subscription to the given subject
func (c *Client) Subscribe(subject string, handler func(*nats.Msg)) (*nats.Subscription, error) {
	return c.conn.Subscribe(subject, handler)
}

// QueueSubscribe creates a queue subscription to the given subject. Queue
// subscriptions let multiple worker instances share a subject so each message
// is delivered to exactly one of them.
func (c *Client) QueueSubscribe(subject, queueGroup string, handler func(*nats.Msg)) (*nats.Subscription, error) {
	return c.conn.QueueSubscribe(subject, queueGroup, handler)
}

// IsConnected returns true if the client is connected to NATS
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Flush flushes any pending messages
func (c *Client) Flush() error {
	return c.conn.Flush()
}

// Close closes the NATS connection
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
		slog.Info("NATS connection closed")
	}
	return nil
}
