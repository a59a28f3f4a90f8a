// Package message defines the incoming message model shared by the
// moderation pipeline and the gateway bridge. An Incoming is decoded once
// from the gateway event and treated as immutable afterwards.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Chat types as reported by the gateway.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// Message kinds. A captioned-media message carries its text in Caption;
// a voice message carries an audio payload reference instead of text.
const (
	KindText           = "text"
	KindCaptionedMedia = "media"
	KindVoice          = "voice"
)

// Entity span types relevant to link detection.
const (
	EntityURL      = "url"
	EntityTextLink = "text_link"
)

// EntitySpan is a structured annotation the platform attached to a span of
// the message text (links, mentions, formatting). Offsets are in UTF-16
// code units as delivered by the platform; the pipeline only inspects Type.
type EntitySpan struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"` // target for text_link entities
}

// Voice is a reference to an audio payload. The gateway exposes a short-lived
// fetch URL; the transcriber downloads the bytes itself.
type Voice struct {
	FetchURL string `json:"fetch_url"`
	MimeType string `json:"mime_type"`
	Duration int    `json:"duration"` // seconds
}

// Incoming is one message event published by the gateway on gateway.message.
// SenderID is 0 for channel-authored posts; SenderChatID is 0 unless the
// message was posted on behalf of a chat (linked channel, anonymous admin).
type Incoming struct {
	ChatID       int64        `json:"chat_id"`
	ChatType     string       `json:"chat_type"`
	MessageID    int64        `json:"message_id"`
	SenderID     int64        `json:"sender_id,omitempty"`
	SenderChatID int64        `json:"sender_chat_id,omitempty"`
	Kind         string       `json:"kind"`
	Text         string       `json:"text,omitempty"`
	Caption      string       `json:"caption,omitempty"`
	Entities     []EntitySpan `json:"entities,omitempty"`
	Voice        *Voice       `json:"voice,omitempty"`
	Ts           int64        `json:"ts"`
}

// Decode parses a gateway.message payload.
func Decode(data []byte) (*Incoming, error) {
	var m Incoming
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("message: decode event: %w", err)
	}
	if m.ChatID == 0 {
		return nil, fmt.Errorf("message: event missing chat_id")
	}
	return &m, nil
}

// Body returns the moderatable text of the message: the text for plain
// messages, the caption for captioned media. Voice messages have no body
// until transcribed.
func (m *Incoming) Body() string {
	if m.Kind == KindCaptionedMedia {
		return m.Caption
	}
	return m.Text
}

// IsPrivate reports one-to-one conversations, which are never moderated.
func (m *Incoming) IsPrivate() bool {
	return m.ChatType == ChatPrivate
}

// IsCommand reports whether the message body is a bot command.
func (m *Incoming) IsCommand() bool {
	return strings.HasPrefix(m.Text, "/")
}

// Snippet returns at most n runes of s for log lines and notifications.
func Snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
