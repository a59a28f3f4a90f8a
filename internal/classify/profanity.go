package classify

import (
	"context"
	"fmt"
	"log"
)

// Scorer is the external ML model that estimates profanity probability.
// It returns one probability per detected segment of the text; the
// classifier collapses them with max. Implemented over NATS request-reply
// by internal/scorer; tests supply a stub.
type Scorer interface {
	Score(ctx context.Context, text string) ([]float64, error)
}

// ProfanityClassifier rejects messages whose maximum segment probability
// is at or above the configured threshold. This is the only classifier
// carrying a continuous score: it feeds the admin notification and the
// per-period report.
type ProfanityClassifier struct {
	scorer    Scorer
	threshold float64
}

// NewProfanityClassifier builds the classifier around the given scorer.
// The threshold boundary is inclusive: a message scoring exactly at the
// threshold is rejected.
func NewProfanityClassifier(scorer Scorer, threshold float64) *ProfanityClassifier {
	return &ProfanityClassifier{scorer: scorer, threshold: threshold}
}

func (c *ProfanityClassifier) Name() string { return "profanity" }

// Classify asks the scorer for per-segment probabilities and takes the max.
// Scorer failure fails open: a message we could not score is left alone
// rather than deleted on no evidence. The error is logged, not propagated.
func (c *ProfanityClassifier) Classify(ctx context.Context, in Input) *Rejection {
	probs, err := c.scorer.Score(ctx, in.Text)
	if err != nil {
		log.Printf("[classify] profanity scorer unavailable, passing message through: %v", err)
		return nil
	}

	max := 0.0
	for _, p := range probs {
		if p > max {
			max = p
		}
	}

	if max >= c.threshold {
		return &Rejection{
			Category: CategoryProfanity,
			Detail:   fmt.Sprintf("score %.3f >= threshold %.3f", max, c.threshold),
			Score:    max,
		}
	}
	return nil
}
