package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storozh/moderator/internal/messaging"
)

// DefaultTimeout bounds one gateway round trip. The gateway itself talks
// to the platform API, so this includes the platform's latency.
const DefaultTimeout = 10 * time.Second

// NATSClient implements Client over the gateway's request-reply API.
type NATSClient struct {
	nc      *messaging.Client
	timeout time.Duration
}

// NewNATSClient wraps a connected messaging client.
func NewNATSClient(nc *messaging.Client) *NATSClient {
	return &NATSClient{nc: nc, timeout: DefaultTimeout}
}

// apiResponse is the gateway's uniform reply envelope.
type apiResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// call marshals req, performs the round trip and decodes the result into
// out (when out is non-nil).
func (c *NATSClient) call(ctx context.Context, method string, req, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("gateway: marshal %s request: %w", method, err)
	}

	data, err := c.nc.RequestAPI(ctx, method, body)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", method, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("gateway: decode %s response: %w", method, err)
	}
	if !resp.OK {
		return fmt.Errorf("gateway: %s failed: %s", method, resp.Error)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("gateway: decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *NATSClient) GetChatMember(ctx context.Context, chatID, userID int64) (MemberStatus, error) {
	req := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}

	var result struct {
		Status MemberStatus `json:"status"`
	}
	if err := c.call(ctx, "get_chat_member", req, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

func (c *NATSClient) DeleteMessage(ctx context.Context, ref MessageRef) error {
	return c.call(ctx, "delete_message", ref, nil)
}

func (c *NATSClient) BanUser(ctx context.Context, chatID, userID int64) error {
	req := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}
	return c.call(ctx, "ban_user", req, nil)
}

func (c *NATSClient) UnbanUser(ctx context.Context, chatID, userID int64) error {
	req := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}
	return c.call(ctx, "unban_user", req, nil)
}

func (c *NATSClient) SendMessage(ctx context.Context, chatID int64, text string, controls []Control) (MessageRef, error) {
	req := struct {
		ChatID   int64     `json:"chat_id"`
		Text     string    `json:"text"`
		Controls []Control `json:"controls,omitempty"`
	}{chatID, text, controls}

	var ref MessageRef
	if err := c.call(ctx, "send_message", req, &ref); err != nil {
		return MessageRef{}, err
	}
	return ref, nil
}

func (c *NATSClient) EditMessage(ctx context.Context, ref MessageRef, text string, controls []Control) error {
	req := struct {
		ChatID    int64     `json:"chat_id"`
		MessageID int64     `json:"message_id"`
		Text      string    `json:"text"`
		Controls  []Control `json:"controls,omitempty"`
	}{ref.ChatID, ref.MessageID, text, controls}
	return c.call(ctx, "edit_message", req, nil)
}

func (c *NATSClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	req := struct {
		CallbackID string `json:"callback_id"`
		Text       string `json:"text,omitempty"`
	}{callbackID, text}
	return c.call(ctx, "answer_callback", req, nil)
}
