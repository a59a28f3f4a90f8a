// Package classify screens message text against the ordered chain of
// content classifiers. Each classifier maps text to an optional rejection;
// the chain applies them in a fixed priority order and stops at the first
// match, so at most one category is ever attributed to a message.
package classify

import (
	"context"

	"github.com/storozh/moderator/internal/message"
)

// Category identifies which classifier produced a rejection.
type Category string

const (
	CategoryForbiddenChars Category = "forbidden_chars"
	CategoryLink           Category = "link"
	CategoryProfanity      Category = "profanity"
)

// Categories lists every rejection category, in chain priority order.
// Used by the statistics aggregator and report rendering.
var Categories = []Category{CategoryForbiddenChars, CategoryLink, CategoryProfanity}

// Input is the text under review together with the platform annotations
// that arrived with it. For voice messages Text is the transcript and
// Entities is empty.
type Input struct {
	Text     string
	Entities []message.EntitySpan
}

// Rejection is a classifier verdict against a message. Detail carries the
// matched evidence (offending rune, matched pattern); Score is only set by
// the profanity classifier.
type Rejection struct {
	Category Category
	Detail   string
	Score    float64
}

// Classifier is the common capability of every content check. A nil return
// means the classifier found nothing objectionable. Classifiers must be
// safe for concurrent use.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, in Input) *Rejection
}

// Chain applies classifiers in order and short-circuits on the first
// rejection. The zero chain allows everything.
type Chain struct {
	classifiers []Classifier
}

// NewChain builds a chain preserving the given order.
func NewChain(classifiers ...Classifier) *Chain {
	return &Chain{classifiers: classifiers}
}

// Check runs the chain. It returns the first rejection, or nil when every
// classifier passes.
func (c *Chain) Check(ctx context.Context, in Input) *Rejection {
	for _, cl := range c.classifiers {
		if rej := cl.Classify(ctx, in); rej != nil {
			return rej
		}
	}
	return nil
}
