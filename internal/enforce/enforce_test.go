package enforce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/storozh/moderator/internal/classify"
	"github.com/storozh/moderator/internal/gateway"
	"github.com/storozh/moderator/internal/message"
)

// fakeGateway records transport calls and returns configured errors.
type fakeGateway struct {
	deleted   []gateway.MessageRef
	banned    [][2]int64
	unbanned  [][2]int64
	sent      []sentMessage
	edited    []editedMessage
	answered  []string
	statuses  map[[2]int64]gateway.MemberStatus
	deleteErr error
	banErr    error
	unbanErr  error
	editErr   error
	statusErr error
	// sendErrFor makes SendMessage fail for one specific recipient.
	sendErrFor int64
}

type sentMessage struct {
	chatID   int64
	text     string
	controls []gateway.Control
}

type editedMessage struct {
	ref      gateway.MessageRef
	text     string
	controls []gateway.Control
}

func (f *fakeGateway) GetChatMember(_ context.Context, chatID, userID int64) (gateway.MemberStatus, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if s, ok := f.statuses[[2]int64{chatID, userID}]; ok {
		return s, nil
	}
	return gateway.StatusMember, nil
}

func (f *fakeGateway) DeleteMessage(_ context.Context, ref gateway.MessageRef) error {
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

func (f *fakeGateway) BanUser(_ context.Context, chatID, userID int64) error {
	f.banned = append(f.banned, [2]int64{chatID, userID})
	return f.banErr
}

func (f *fakeGateway) UnbanUser(_ context.Context, chatID, userID int64) error {
	f.unbanned = append(f.unbanned, [2]int64{chatID, userID})
	return f.unbanErr
}

func (f *fakeGateway) SendMessage(_ context.Context, chatID int64, text string, controls []gateway.Control) (gateway.MessageRef, error) {
	if f.sendErrFor != 0 && chatID == f.sendErrFor {
		return gateway.MessageRef{}, errors.New("delivery refused")
	}
	f.sent = append(f.sent, sentMessage{chatID, text, controls})
	return gateway.MessageRef{ChatID: chatID, MessageID: int64(len(f.sent))}, nil
}

func (f *fakeGateway) EditMessage(_ context.Context, ref gateway.MessageRef, text string, controls []gateway.Control) error {
	f.edited = append(f.edited, editedMessage{ref, text, controls})
	return f.editErr
}

func (f *fakeGateway) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answered = append(f.answered, text)
	return nil
}

// memoryGuard is an in-process AttemptGuard for duplicate-suppression tests.
type memoryGuard struct {
	seen map[string]bool
}

func newMemoryGuard() *memoryGuard { return &memoryGuard{seen: make(map[string]bool)} }

func (g *memoryGuard) FirstAttempt(_ context.Context, key string) bool {
	if g.seen[key] {
		return false
	}
	g.seen[key] = true
	return true
}

func groupMsg(sender int64) *message.Incoming {
	return &message.Incoming{
		ChatID:    100,
		ChatType:  message.ChatSupergroup,
		MessageID: 7,
		SenderID:  sender,
		Kind:      message.KindText,
		Text:      "текст",
	}
}

func TestApplyLinkDeletesWithoutBan(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, NopGuard(), []int64{1})

	out := e.Apply(context.Background(), groupMsg(55), &classify.Rejection{Category: classify.CategoryLink}, "текст", false)

	if !out.DeleteAttempted || out.DeleteErr != nil {
		t.Fatalf("outcome = %+v, want clean delete", out)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != (gateway.MessageRef{ChatID: 100, MessageID: 7}) {
		t.Errorf("deleted = %v", gw.deleted)
	}
	if out.BanAttempted || len(gw.banned) != 0 {
		t.Error("link rejection must not ban")
	}
	if len(gw.sent) != 0 {
		t.Error("no notification without a ban")
	}
}

func TestApplyProfanityBansAndNotifies(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, NopGuard(), []int64{1, 2, 3})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.95}
	out := e.Apply(context.Background(), groupMsg(55), rej, "плохой текст", false)

	if !out.Banned() {
		t.Fatalf("outcome = %+v, want successful ban", out)
	}
	if len(gw.banned) != 1 || gw.banned[0] != [2]int64{100, 55} {
		t.Errorf("banned = %v", gw.banned)
	}
	if out.NotifiedAdmins != 3 || len(gw.sent) != 3 {
		t.Fatalf("notified %d admins (%d sends), want 3", out.NotifiedAdmins, len(gw.sent))
	}

	n := gw.sent[0]
	if !strings.Contains(n.text, "95.0%") {
		t.Errorf("notification missing probability: %q", n.text)
	}
	if !strings.Contains(n.text, "плохой текст") {
		t.Errorf("notification missing excerpt: %q", n.text)
	}
	if len(n.controls) != 2 || n.controls[0].Data != "unban_100_55" || n.controls[1].Data != "dismiss" {
		t.Errorf("controls = %+v", n.controls)
	}
}

func TestApplyVoiceTaggedNotification(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, NopGuard(), []int64{1})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.8}
	e.Apply(context.Background(), groupMsg(55), rej, "расшифровка", true)

	if len(gw.sent) != 1 || !strings.Contains(gw.sent[0].text, "Голосовое") {
		t.Fatalf("voice-sourced violation not tagged: %+v", gw.sent)
	}
}

func TestApplyChannelPostNeverBanned(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, NopGuard(), []int64{1})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.99}
	out := e.Apply(context.Background(), groupMsg(0), rej, "текст", false)

	if len(gw.deleted) != 1 {
		t.Error("channel post should still be deleted")
	}
	if out.BanAttempted || len(gw.banned) != 0 {
		t.Error("no sender identity means no ban")
	}
}

func TestApplyDeleteFailureDoesNotBlockBan(t *testing.T) {
	gw := &fakeGateway{deleteErr: errors.New("message already gone")}
	e := New(gw, NopGuard(), []int64{1})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.9}
	out := e.Apply(context.Background(), groupMsg(55), rej, "текст", false)

	if out.DeleteErr == nil {
		t.Error("delete error not recorded")
	}
	if !out.Banned() {
		t.Errorf("ban should proceed after failed delete, outcome = %+v", out)
	}
}

func TestApplyBanFailureSkipsNotification(t *testing.T) {
	gw := &fakeGateway{banErr: errors.New("insufficient rights")}
	e := New(gw, NopGuard(), []int64{1})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.9}
	out := e.Apply(context.Background(), groupMsg(55), rej, "текст", false)

	if !out.BanAttempted || out.BanErr == nil {
		t.Fatalf("outcome = %+v, want failed ban attempt", out)
	}
	if len(gw.sent) != 0 {
		t.Error("failed ban must not notify admins")
	}
}

func TestApplyNotifyFailureIsPerRecipient(t *testing.T) {
	gw := &fakeGateway{sendErrFor: 2}
	e := New(gw, NopGuard(), []int64{1, 2, 3})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.9}
	out := e.Apply(context.Background(), groupMsg(55), rej, "текст", false)

	if out.NotifiedAdmins != 2 {
		t.Errorf("NotifiedAdmins = %d, want 2 (one delivery failed)", out.NotifiedAdmins)
	}
}

func TestApplyGuardSuppressesRepeat(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, newMemoryGuard(), []int64{1})

	rej := &classify.Rejection{Category: classify.CategoryProfanity, Score: 0.9}
	m := groupMsg(55)

	first := e.Apply(context.Background(), m, rej, "текст", false)
	second := e.Apply(context.Background(), m, rej, "текст", false)

	if !first.DeleteAttempted || !first.BanAttempted {
		t.Fatalf("first outcome = %+v", first)
	}
	if second.DeleteAttempted || second.BanAttempted {
		t.Fatalf("second outcome = %+v, want everything suppressed", second)
	}
	if len(gw.deleted) != 1 || len(gw.banned) != 1 {
		t.Errorf("transport saw %d deletes, %d bans; want 1 and 1", len(gw.deleted), len(gw.banned))
	}
}

func TestGuardKeysDistinctPerMessage(t *testing.T) {
	g := newMemoryGuard()
	gw := &fakeGateway{}
	e := New(gw, g, nil)

	rej := &classify.Rejection{Category: classify.CategoryLink}
	for i := int64(1); i <= 3; i++ {
		m := groupMsg(55)
		m.MessageID = i
		e.Apply(context.Background(), m, rej, "текст", false)
	}
	if len(gw.deleted) != 3 {
		t.Fatalf("deleted %d messages, want 3 (keys %v)", len(gw.deleted), fmt.Sprint(g.seen))
	}
}
