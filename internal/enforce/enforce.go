// Package enforce carries out the side effects of a rejection verdict:
// deleting the message, banning the sender, notifying administrators, and
// reversing bans from the notification controls. Every action is
// best-effort: failures are logged with full context and folded into the
// outcome, never retried, and never change the verdict.
package enforce

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/storozh/moderator/internal/classify"
	"github.com/storozh/moderator/internal/gateway"
	"github.com/storozh/moderator/internal/message"
)

// snippetRunes caps the excerpt quoted in admin notifications.
const snippetRunes = 120

// BanRecord is the ephemeral context of one ban, assembled only to render
// the administrator notification. Reversal identity travels inside the
// notification's control payload, not in any stored table.
type BanRecord struct {
	ChatID    int64
	UserID    int64
	Snippet   string
	Score     float64
	FromVoice bool
	At        time.Time
}

// Outcome reports what enforcement did for one message. A set *Err with
// its Attempted flag true means the action was decided and tried but the
// transport refused it; statistics count the decision either way.
type Outcome struct {
	DeleteAttempted bool
	DeleteErr       error
	BanAttempted    bool
	BanErr          error
	NotifiedAdmins  int
}

// Banned reports a fully successful sanction.
func (o Outcome) Banned() bool {
	return o.BanAttempted && o.BanErr == nil
}

// Enforcer executes enforcement actions through the gateway.
type Enforcer struct {
	gw     gateway.Client
	guard  AttemptGuard
	admins []int64
}

// New creates an Enforcer. admins is the list of user ids that receive
// ban notifications.
func New(gw gateway.Client, guard AttemptGuard, admins []int64) *Enforcer {
	return &Enforcer{gw: gw, guard: guard, admins: admins}
}

// Apply enforces a rejection: delete always, ban only for profanity and
// only when a sender identity is known, notification only after a
// successful ban. The guard keeps each action at-most-once per message.
func (e *Enforcer) Apply(ctx context.Context, m *message.Incoming, rej *classify.Rejection, text string, fromVoice bool) Outcome {
	var out Outcome

	if e.guard.FirstAttempt(ctx, guardKey(m, "delete")) {
		out.DeleteAttempted = true
		ref := gateway.MessageRef{ChatID: m.ChatID, MessageID: m.MessageID}
		if err := e.gw.DeleteMessage(ctx, ref); err != nil {
			out.DeleteErr = err
			log.Printf("[enforce] delete failed chat=%d msg=%d category=%s: %v",
				m.ChatID, m.MessageID, rej.Category, err)
		}
	}

	// Sanction: profanity only, only after the delete attempt, and never
	// for channel-authored posts that carry no user identity.
	if rej.Category != classify.CategoryProfanity || m.SenderID == 0 {
		return out
	}
	if !e.guard.FirstAttempt(ctx, guardKey(m, "ban")) {
		return out
	}

	out.BanAttempted = true
	if err := e.gw.BanUser(ctx, m.ChatID, m.SenderID); err != nil {
		out.BanErr = err
		log.Printf("[enforce] ban failed chat=%d user=%d score=%.3f: %v",
			m.ChatID, m.SenderID, rej.Score, err)
		return out
	}

	record := BanRecord{
		ChatID:    m.ChatID,
		UserID:    m.SenderID,
		Snippet:   message.Snippet(text, snippetRunes),
		Score:     rej.Score,
		FromVoice: fromVoice,
		At:        time.Now(),
	}
	out.NotifiedAdmins = e.notifyAdmins(ctx, record)

	return out
}

// notifyAdmins delivers the ban notification to every configured admin
// independently; one failed delivery never blocks the rest.
func (e *Enforcer) notifyAdmins(ctx context.Context, r BanRecord) int {
	text := renderBanNotification(r)
	controls := []gateway.Control{
		{Text: "↩️ Разбанить", Data: fmt.Sprintf("unban_%d_%d", r.ChatID, r.UserID)},
		{Text: "✖️ Скрыть", Data: "dismiss"},
	}

	sent := 0
	for _, adminID := range e.admins {
		if _, err := e.gw.SendMessage(ctx, adminID, text, controls); err != nil {
			log.Printf("[enforce] notify admin=%d failed (chat=%d user=%d): %v",
				adminID, r.ChatID, r.UserID, err)
			continue
		}
		sent++
	}
	return sent
}

// renderBanNotification formats the admin-facing ban notice.
func renderBanNotification(r BanRecord) string {
	source := "Сообщение"
	if r.FromVoice {
		source = "Голосовое сообщение (расшифровка)"
	}
	return fmt.Sprintf(
		"🚫 Пользователь забанен за мат\n\nЧат: %d\nПользователь: %d\nВероятность: %.1f%%\n%s: «%s»",
		r.ChatID, r.UserID, r.Score*100, source, r.Snippet)
}

func guardKey(m *message.Incoming, action string) string {
	return fmt.Sprintf("%d:%d:%s", m.ChatID, m.MessageID, action)
}
