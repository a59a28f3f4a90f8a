// Package scorer is the client side of the external profanity model.
// The model runs as its own service and answers scoring requests over
// NATS request-reply; this package only shuttles text in and per-segment
// probabilities out.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storozh/moderator/internal/messaging"
)

// DefaultTimeout bounds one scoring round trip. Model inference is fast;
// a slow reply means the scorer is in trouble and the classifier will
// fail open anyway.
const DefaultTimeout = 5 * time.Second

// Client implements classify.Scorer over NATS.
type Client struct {
	nc      *messaging.Client
	timeout time.Duration
}

// NewClient wraps a connected messaging client.
func NewClient(nc *messaging.Client) *Client {
	return &Client{nc: nc, timeout: DefaultTimeout}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// Score returns one profanity probability per segment the model detected
// in the text.
func (c *Client) Score(ctx context.Context, text string) ([]float64, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("scorer: marshal request: %w", err)
	}

	data, err := c.nc.RequestScore(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	var resp scoreResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("scorer: decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("scorer: %s", resp.Error)
	}
	return resp.Probabilities, nil
}
