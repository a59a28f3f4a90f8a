package classify

import (
	"context"
	"testing"

	"github.com/storozh/moderator/internal/message"
)

// recordingClassifier notes whether it ran and returns a canned rejection.
type recordingClassifier struct {
	name string
	rej  *Rejection
	ran  bool
}

func (r *recordingClassifier) Name() string { return r.name }

func (r *recordingClassifier) Classify(_ context.Context, _ Input) *Rejection {
	r.ran = true
	return r.rej
}

func TestChainFirstMatchWins(t *testing.T) {
	first := &recordingClassifier{name: "first", rej: &Rejection{Category: CategoryForbiddenChars}}
	second := &recordingClassifier{name: "second", rej: &Rejection{Category: CategoryLink}}

	chain := NewChain(first, second)
	rej := chain.Check(context.Background(), Input{Text: "x"})

	if rej == nil || rej.Category != CategoryForbiddenChars {
		t.Fatalf("chain returned %+v, want first classifier's rejection", rej)
	}
	if second.ran {
		t.Fatal("chain did not short-circuit: second classifier ran after first rejected")
	}
}

func TestChainAllPass(t *testing.T) {
	first := &recordingClassifier{name: "first"}
	second := &recordingClassifier{name: "second"}

	chain := NewChain(first, second)
	if rej := chain.Check(context.Background(), Input{Text: "чисто"}); rej != nil {
		t.Fatalf("chain returned %+v for passing classifiers", rej)
	}
	if !first.ran || !second.ran {
		t.Fatal("all classifiers should run when none reject")
	}
}

// TestChainPriorityOrder wires the real classifiers the way the pipeline
// does and verifies the documented precedence with a stub scorer that would
// flag everything.
func TestChainPriorityOrder(t *testing.T) {
	chain := NewChain(
		NewCharsetClassifier(),
		NewLinkClassifier(),
		NewProfanityClassifier(&stubScorer{probs: []float64{0.99}}, 0.7),
	)

	tests := []struct {
		name string
		in   Input
		want Category
	}{
		// Any Latin letter is attributed to forbidden characters even when
		// the text is also a link: charset runs first.
		{"latin beats link", Input{Text: "зайди http://x.com"}, CategoryForbiddenChars},
		// A platform-resolved link behind clean visible text is the case
		// the link classifier exists for.
		{"link beats profanity", Input{
			Text:     "нажми сюда",
			Entities: []message.EntitySpan{{Type: message.EntityTextLink, URL: "http://x.com"}},
		}, CategoryLink},
		{"profanity last", Input{Text: "обычный текст"}, CategoryProfanity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := chain.Check(context.Background(), tt.in)
			if rej == nil || rej.Category != tt.want {
				t.Fatalf("Check(%q) = %+v, want category %q", tt.in.Text, rej, tt.want)
			}
		})
	}
}
