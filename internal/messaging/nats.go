// Package messaging provides a NATS client wrapper for the moderation
// service. The chat-platform gateway and the profanity scorer live in
// separate processes; this package carries the subjects and helpers for
// talking to both: event subscriptions for incoming messages and callback
// presses, and request-reply for transport actions and scoring.
package messaging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects shared with the gateway and scorer services.
const (
	// SubjectMessage carries every message the gateway sees, one event
	// per message, JSON-encoded.
	SubjectMessage = "gateway.message"

	// SubjectCallback carries inline-control activations (button presses
	// on admin notifications).
	SubjectCallback = "gateway.callback"

	// SubjectAPIPrefix is the request-reply namespace for transport
	// actions, completed with the method name (gateway.api.delete_message,
	// gateway.api.ban_user, ...).
	SubjectAPIPrefix = "gateway.api."

	// SubjectScore is the request-reply subject of the profanity scorer.
	SubjectScore = "scorer.score"
)

// Client wraps the NATS connection with helper methods for the moderation
// service's pub/sub and request-reply traffic.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "storozh-moderator",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &Client{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *Client) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// SubscribeMessages registers a handler for incoming message events.
func (c *Client) SubscribeMessages(handler func(data []byte)) error {
	return c.Subscribe(SubjectMessage, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// SubscribeCallbacks registers a handler for inline-control activations.
func (c *Client) SubscribeCallbacks(handler func(data []byte)) error {
	return c.Subscribe(SubjectCallback, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Request performs a request-reply round trip on the given subject,
// honoring the context deadline.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("nats request %s: %w", subject, err)
	}
	return msg.Data, nil
}

// RequestAPI performs a transport action request against the gateway.
func (c *Client) RequestAPI(ctx context.Context, method string, data []byte) ([]byte, error) {
	return c.Request(ctx, SubjectAPIPrefix+method, data)
}

// RequestScore asks the profanity scorer to evaluate a text.
func (c *Client) RequestScore(ctx context.Context, data []byte) ([]byte, error) {
	return c.Request(ctx, SubjectScore, data)
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
