// Package policy holds the chat allow-list and sender exemptions that
// scope moderation. A Policy is assembled once at process start, from
// configuration and optionally from Postgres, and is read-only for the
// lifetime of the process, so lookups need no synchronization.
package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy is the set of chats eligible for moderation and the set of
// sender-chat identities exempt from it (e.g. the channel linked to a
// group, whose reposts carry the channel's identity).
type Policy struct {
	allowed map[int64]struct{}
	exempt  map[int64]struct{}
}

// New builds a policy from explicit id lists.
func New(allowedChats, exemptSenders []int64) *Policy {
	p := &Policy{
		allowed: make(map[int64]struct{}, len(allowedChats)),
		exempt:  make(map[int64]struct{}, len(exemptSenders)),
	}
	for _, id := range allowedChats {
		p.allowed[id] = struct{}{}
	}
	for _, id := range exemptSenders {
		p.exempt[id] = struct{}{}
	}
	return p
}

// IsAllowed reports whether a chat is moderated at all.
func (p *Policy) IsAllowed(chatID int64) bool {
	_, ok := p.allowed[chatID]
	return ok
}

// IsExemptSender reports whether messages posted on behalf of the given
// sender-chat bypass moderation.
func (p *Policy) IsExemptSender(senderChatID int64) bool {
	if senderChatID == 0 {
		return false
	}
	_, ok := p.exempt[senderChatID]
	return ok
}

// AllowedCount returns the size of the allow-list, for startup logging
// and config validation.
func (p *Policy) AllowedCount() int {
	return len(p.allowed)
}

// merge adds further ids into the policy. Only used during assembly,
// before the policy is shared.
func (p *Policy) merge(allowedChats, exemptSenders []int64) {
	for _, id := range allowedChats {
		p.allowed[id] = struct{}{}
	}
	for _, id := range exemptSenders {
		p.exempt[id] = struct{}{}
	}
}

// ParseIDList parses a comma-separated list of integer ids, tolerating
// whitespace and empty items. The config layer stores id lists as strings
// so they can come from env vars.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("policy: invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
