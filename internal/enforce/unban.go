package enforce

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/storozh/moderator/internal/gateway"
)

// Control payloads carried by ban notifications.
const (
	unbanPrefix = "unban_"
	dismissData = "dismiss"
)

// resolvedMarker is appended to a notification once its ban is reversed.
const resolvedMarker = "\n\n✅ Бан снят"

// CallbackHandler processes inline-control activations on ban
// notifications: ban reversal and notification dismissal.
type CallbackHandler struct {
	gw gateway.Client
}

// NewCallbackHandler creates a handler over the given gateway.
func NewCallbackHandler(gw gateway.Client) *CallbackHandler {
	return &CallbackHandler{gw: gw}
}

// Handle dispatches one callback event. Every path ends in an ephemeral
// acknowledgement to the pressing administrator; nothing here is fatal.
func (h *CallbackHandler) Handle(ctx context.Context, ev gateway.CallbackEvent) {
	switch {
	case ev.Data == dismissData:
		h.dismiss(ctx, ev)
	case strings.HasPrefix(ev.Data, unbanPrefix):
		h.unban(ctx, ev)
	default:
		log.Printf("[enforce] unknown callback data %q from user=%d", ev.Data, ev.FromID)
		h.answer(ctx, ev, "Неизвестная команда")
	}
}

// dismiss deletes the notification message itself.
func (h *CallbackHandler) dismiss(ctx context.Context, ev gateway.CallbackEvent) {
	if err := h.gw.DeleteMessage(ctx, ev.Message); err != nil {
		log.Printf("[enforce] dismiss notification chat=%d msg=%d: %v",
			ev.Message.ChatID, ev.Message.MessageID, err)
	}
	h.answer(ctx, ev, "Уведомление скрыто")
}

// unban reverses a ban encoded as unban_<chat>_<user>.
func (h *CallbackHandler) unban(ctx context.Context, ev gateway.CallbackEvent) {
	chatID, userID, ok := parseUnbanPayload(ev.Data)
	if !ok {
		log.Printf("[enforce] malformed unban payload %q from user=%d", ev.Data, ev.FromID)
		h.answer(ctx, ev, "Ошибка: некорректные данные кнопки")
		return
	}

	status, err := h.gw.GetChatMember(ctx, chatID, userID)
	if err != nil {
		log.Printf("[enforce] unban status lookup chat=%d user=%d: %v", chatID, userID, err)
		h.answer(ctx, ev, "Ошибка: не удалось проверить статус пользователя")
		return
	}

	if !status.Banned() {
		h.answer(ctx, ev, "Пользователь уже не в бане")
		return
	}

	if err := h.gw.UnbanUser(ctx, chatID, userID); err != nil {
		log.Printf("[enforce] unban failed chat=%d user=%d: %v", chatID, userID, err)
		h.answer(ctx, ev, "Ошибка: не удалось снять бан")
		return
	}

	// Mark the notification resolved and drop its controls. Best-effort:
	// another admin may have edited or dismissed it already.
	if err := h.gw.EditMessage(ctx, ev.Message, ev.MessageText+resolvedMarker, nil); err != nil {
		log.Printf("[enforce] mark notification resolved chat=%d msg=%d: %v",
			ev.Message.ChatID, ev.Message.MessageID, err)
	}

	log.Printf("[enforce] ban reversed chat=%d user=%d by admin=%d", chatID, userID, ev.FromID)
	h.answer(ctx, ev, "Бан снят")
}

func (h *CallbackHandler) answer(ctx context.Context, ev gateway.CallbackEvent, text string) {
	if err := h.gw.AnswerCallback(ctx, ev.ID, text); err != nil {
		log.Printf("[enforce] answer callback id=%s: %v", ev.ID, err)
	}
}

// parseUnbanPayload decodes unban_<chat>_<user>. Exactly two integers are
// expected; anything else is malformed. Negative chat ids are fine; the
// minus sign is not a separator.
func parseUnbanPayload(data string) (chatID, userID int64, ok bool) {
	parts := strings.Split(strings.TrimPrefix(data, unbanPrefix), "_")
	if len(parts) != 2 {
		return 0, 0, false
	}
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return chatID, userID, true
}
