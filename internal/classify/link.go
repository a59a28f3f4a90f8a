package classify

import (
	"context"
	"regexp"

	"github.com/storozh/moderator/internal/message"
)

// linkPattern matches explicit URL schemes, bare www. prefixes and the
// platform's own short-link hosts. Compiled once at package init and reused
// for every call, so it is safe for concurrent use. This is the fallback
// path only: entity annotations from the platform take precedence because
// they survive visible-text obfuscation (the platform already resolved the
// link target).
var linkPattern = regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://\S+|www\.\S+|\bt\.me/\S+|\btelegram\.me/\S+|\btg://\S+)`)

// LinkClassifier rejects messages that carry a hyperlink, either marked as
// an entity by the platform or matched as a pattern in the raw text.
type LinkClassifier struct{}

// NewLinkClassifier returns the link classifier.
func NewLinkClassifier() *LinkClassifier {
	return &LinkClassifier{}
}

func (c *LinkClassifier) Name() string { return "link" }

func (c *LinkClassifier) Classify(_ context.Context, in Input) *Rejection {
	for _, e := range in.Entities {
		if e.Type == message.EntityURL || e.Type == message.EntityTextLink {
			return &Rejection{Category: CategoryLink, Detail: "entity:" + e.Type}
		}
	}
	if m := linkPattern.FindString(in.Text); m != "" {
		return &Rejection{Category: CategoryLink, Detail: m}
	}
	return nil
}
