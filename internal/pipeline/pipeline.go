// Package pipeline composes the moderation decision chain: eligibility
// filtering, voice transcription, ordered content classification,
// enforcement, and statistics. Each incoming message runs through Process
// as an independent unit of work; many runs may be in flight at once, and
// the only shared mutable state is the statistics aggregator.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/storozh/moderator/internal/classify"
	"github.com/storozh/moderator/internal/enforce"
	"github.com/storozh/moderator/internal/gateway"
	"github.com/storozh/moderator/internal/message"
	"github.com/storozh/moderator/internal/metrics"
	"github.com/storozh/moderator/internal/policy"
	"github.com/storozh/moderator/internal/stats"
	"github.com/storozh/moderator/internal/transcribe"
)

// Decision is the final disposition of one message.
type Decision int

const (
	// DecisionOutOfScope: chat not on the allow-list; dropped silently.
	DecisionOutOfScope Decision = iota
	// DecisionPrivateExempt: one-to-one conversation, never moderated.
	DecisionPrivateExempt
	// DecisionPrivilegedExempt: exempt sender-chat or privileged sender.
	DecisionPrivilegedExempt
	// DecisionSkipped: in scope, but no classification ran (no text, or
	// voice that could not be transcribed). Not counted as checked.
	DecisionSkipped
	// DecisionAllowed: classified, no classifier rejected.
	DecisionAllowed
	// DecisionRejected: classified and rejected; deletion decided.
	DecisionRejected
	// DecisionRejectedAndBanned: rejected with a successful sanction.
	DecisionRejectedAndBanned
	// DecisionRejectedBanFailed: rejected; sanction decided but refused
	// by the transport.
	DecisionRejectedBanFailed
)

func (d Decision) String() string {
	switch d {
	case DecisionOutOfScope:
		return "out_of_scope"
	case DecisionPrivateExempt:
		return "private_exempt"
	case DecisionPrivilegedExempt:
		return "privileged_exempt"
	case DecisionSkipped:
		return "skipped"
	case DecisionAllowed:
		return "allowed"
	case DecisionRejected:
		return "rejected"
	case DecisionRejectedAndBanned:
		return "rejected_banned"
	case DecisionRejectedBanFailed:
		return "rejected_ban_failed"
	}
	return "unknown"
}

// Verdict is the full result of one pipeline run. Exactly one Verdict is
// produced per message.
type Verdict struct {
	Decision  Decision
	Rejection *classify.Rejection
	Outcome   enforce.Outcome
}

// Pipeline wires the stages together. Construct with New; all fields are
// read-only after that, so one Pipeline serves all goroutines.
type Pipeline struct {
	policy      *policy.Policy
	gw          gateway.Client
	transcriber transcribe.Transcriber // nil disables voice moderation
	chain       *classify.Chain
	enforcer    *enforce.Enforcer
	stats       *stats.Aggregator
}

// New assembles a pipeline. A nil transcriber leaves voice messages
// unmoderated (they skip, they are never violations).
func New(p *policy.Policy, gw gateway.Client, tr transcribe.Transcriber, chain *classify.Chain, enf *enforce.Enforcer, agg *stats.Aggregator) *Pipeline {
	return &Pipeline{
		policy:      p,
		gw:          gw,
		transcriber: tr,
		chain:       chain,
		enforcer:    enf,
		stats:       agg,
	}
}

// Process runs one message through the full chain and returns its verdict.
// Safe for concurrent use; every external call honors ctx.
func (p *Pipeline) Process(ctx context.Context, m *message.Incoming) Verdict {
	start := time.Now()
	runID := uuid.NewString()[:8]

	switch p.eligibility(ctx, m, runID) {
	case scopeOut:
		return Verdict{Decision: DecisionOutOfScope}
	case scopePrivate:
		return Verdict{Decision: DecisionPrivateExempt}
	case scopePrivileged:
		return Verdict{Decision: DecisionPrivilegedExempt}
	}

	text, entities, fromVoice, ok := p.textFor(ctx, m, runID)
	if !ok {
		return Verdict{Decision: DecisionSkipped}
	}

	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	// A classification attempt is now definitely running: count it.
	// This includes successfully transcribed voice messages.
	p.stats.RecordChecked(m.ChatID)
	metrics.MessagesChecked.Inc()

	rej := p.chain.Check(ctx, classify.Input{Text: text, Entities: entities})
	if rej == nil {
		return Verdict{Decision: DecisionAllowed}
	}

	log.Printf("[pipeline] run=%s rejected chat=%d msg=%d user=%d category=%s detail=%q voice=%v",
		runID, m.ChatID, m.MessageID, m.SenderID, rej.Category, rej.Detail, fromVoice)

	p.stats.RecordRejection(m.ChatID, rej.Category)
	metrics.MessagesDeleted.WithLabelValues(string(rej.Category)).Inc()

	out := p.enforcer.Apply(ctx, m, rej, text, fromVoice)

	decision := DecisionRejected
	if out.BanAttempted {
		// A ban decision counts even when the transport refuses it.
		p.stats.RecordBan(m.ChatID)
		metrics.UsersBanned.Inc()
		if out.Banned() {
			decision = DecisionRejectedAndBanned
		} else {
			decision = DecisionRejectedBanFailed
		}
	}

	return Verdict{Decision: decision, Rejection: rej, Outcome: out}
}

// scopeResult is the eligibility filter's outcome.
type scopeResult int

const (
	scopeOut scopeResult = iota
	scopePrivate
	scopePrivileged
	scopeIn
)

// eligibility applies the scope checks in order.
func (p *Pipeline) eligibility(ctx context.Context, m *message.Incoming, runID string) scopeResult {
	// Private conversations are the command surface's territory.
	if m.IsPrivate() {
		return scopePrivate
	}

	if !p.policy.IsAllowed(m.ChatID) {
		return scopeOut
	}

	// Posts on behalf of an exempt chat (linked channel, the group
	// itself) bypass moderation entirely.
	if p.policy.IsExemptSender(m.SenderChatID) {
		return scopePrivileged
	}

	// Privileged senders are exempt. The lookup can fail (the bot may
	// lack rights to query membership); then we moderate anyway.
	if m.SenderID != 0 {
		status, err := p.gw.GetChatMember(ctx, m.ChatID, m.SenderID)
		if err != nil {
			log.Printf("[pipeline] run=%s privilege lookup failed chat=%d user=%d, moderating anyway: %v",
				runID, m.ChatID, m.SenderID, err)
			metrics.PrivilegeLookupFailures.Inc()
			return scopeIn
		}
		if status.Privileged() {
			return scopePrivileged
		}
	}

	return scopeIn
}

// textFor resolves the text to classify. For voice messages this blocks
// on transcription; a message whose audio cannot be transcribed is left
// untouched rather than punished for being unintelligible.
func (p *Pipeline) textFor(ctx context.Context, m *message.Incoming, runID string) (text string, entities []message.EntitySpan, fromVoice, ok bool) {
	if m.Kind == message.KindVoice {
		if p.transcriber == nil {
			return "", nil, true, false
		}
		transcript, err := p.transcriber.Transcribe(ctx, m.Voice)
		if err != nil {
			log.Printf("[pipeline] run=%s transcription failed chat=%d msg=%d, leaving message unmoderated: %v",
				runID, m.ChatID, m.MessageID, err)
			metrics.TranscriptionFailures.Inc()
			return "", nil, true, false
		}
		if transcript == "" {
			return "", nil, true, false
		}
		return transcript, nil, true, true
	}

	body := m.Body()
	if body == "" {
		// Media without caption: nothing to classify.
		return "", nil, false, false
	}
	return body, m.Entities, false, true
}
