// Package gateway defines the transport actions the moderation service
// needs from the chat platform, and implements them against the external
// gateway process over NATS request-reply. The gateway owns the platform
// session; this service only ever asks it to act.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// MemberStatus is the chat membership status reported by the platform.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// Privileged reports whether the status grants moderation exemption.
func (s MemberStatus) Privileged() bool {
	return s == StatusCreator || s == StatusAdministrator
}

// Banned reports whether the status means currently banned from the chat.
func (s MemberStatus) Banned() bool {
	return s == StatusKicked
}

// MessageRef identifies one message on the platform.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// Control is one inline button attached to a sent message. Data is the
// opaque payload delivered back in a CallbackEvent when pressed.
type Control struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// CallbackEvent is an inline-control activation forwarded by the gateway.
type CallbackEvent struct {
	ID          string     `json:"id"`      // platform callback id, for the ack
	FromID      int64      `json:"from_id"` // user who pressed the control
	Data        string     `json:"data"`
	Message     MessageRef `json:"message"`      // the notification carrying the control
	MessageText string     `json:"message_text"` // its current visible text
}

// DecodeCallback parses a gateway.callback payload.
func DecodeCallback(data []byte) (*CallbackEvent, error) {
	var ev CallbackEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("gateway: decode callback event: %w", err)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("gateway: callback event missing id")
	}
	return &ev, nil
}

// Client is the set of transport actions consumed by the pipeline,
// enforcement and command layers. All calls are synchronous platform
// round trips and honor the context deadline.
type Client interface {
	// GetChatMember looks up a user's membership status in a chat.
	GetChatMember(ctx context.Context, chatID, userID int64) (MemberStatus, error)

	// DeleteMessage removes a message. Deleting an already-deleted
	// message surfaces as a harmless error.
	DeleteMessage(ctx context.Context, ref MessageRef) error

	// BanUser removes a user from a chat until manually reversed.
	BanUser(ctx context.Context, chatID, userID int64) error

	// UnbanUser lifts a ban so the user may rejoin.
	UnbanUser(ctx context.Context, chatID, userID int64) error

	// SendMessage delivers text, optionally with one row of inline
	// controls, and returns a reference to the sent message.
	SendMessage(ctx context.Context, chatID int64, text string, controls []Control) (MessageRef, error)

	// EditMessage replaces a message's text and controls. Passing no
	// controls removes any existing ones.
	EditMessage(ctx context.Context, ref MessageRef, text string, controls []Control) error

	// AnswerCallback sends an ephemeral acknowledgement to whoever
	// pressed an inline control.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
