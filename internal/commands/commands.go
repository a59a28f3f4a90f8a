// Package commands implements the small informational command surface
// outside the moderation core: onboarding replies in private chats and a
// privileged chat diagnostic, gated by the same chat policy the pipeline
// uses.
package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/storozh/moderator/internal/gateway"
	"github.com/storozh/moderator/internal/message"
	"github.com/storozh/moderator/internal/policy"
)

const startText = "Привет! Я бот для модерации чата.\n" +
	"Я автоматически проверяю сообщения: запрещённые символы, ссылки и мат. " +
	"Нарушения удаляются, за мат отправитель получает бан.\n\n" +
	"Для работы мне нужны права администратора группы с возможностью " +
	"удалять сообщения и банить участников."

// Handler answers informational commands.
type Handler struct {
	gw     gateway.Client
	pol    *policy.Policy
	admins map[int64]struct{}
}

// New creates a command handler. admins may use the privileged
// diagnostics.
func New(gw gateway.Client, pol *policy.Policy, admins []int64) *Handler {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &Handler{gw: gw, pol: pol, admins: set}
}

// Handle processes a command message. It returns true when the message
// was a command this handler answered; everything else is left to the
// pipeline's verdict.
func (h *Handler) Handle(ctx context.Context, m *message.Incoming) bool {
	if !m.IsCommand() {
		return false
	}

	switch command(m.Text) {
	case "start", "help":
		if !m.IsPrivate() {
			return false
		}
		h.reply(ctx, m.ChatID, startText)
		return true

	case "chatid":
		// Privileged diagnostic, and only inside moderated chats,
		// the same allow-list gate the pipeline applies.
		if m.IsPrivate() || !h.pol.IsAllowed(m.ChatID) {
			return false
		}
		if _, ok := h.admins[m.SenderID]; !ok {
			return false
		}
		h.reply(ctx, m.ChatID, fmt.Sprintf("ID этого чата: %d", m.ChatID))
		return true
	}

	return false
}

// command extracts the bare command name: "/start@some_bot arg" -> "start".
func command(text string) string {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.gw.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Printf("[commands] reply to chat=%d failed: %v", chatID, err)
	}
}
