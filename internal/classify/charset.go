package classify

import (
	"context"
	"fmt"
	"unicode"
)

// allowedPunct is the fixed punctuation and symbol set permitted in
// moderated chats, alongside Cyrillic letters, digits and whitespace.
const allowedPunct = `.,!?;:()«»"'-–—…_%№+=*/\@#&°` + "`’"

// deniedSymbols are rejected outright even though some of them fall into
// otherwise tolerated Unicode classes. They show up almost exclusively in
// spam decorations.
const deniedSymbols = "$€₽£¥^~|<>{}[]"

// emojiRanges covers pictographic code points permitted in messages.
// Joiners and modifiers used to compose emoji sequences are listed
// separately in isEmojiJoiner.
var emojiRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2190, Hi: 0x21FF, Stride: 1}, // arrows
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1}, // misc symbols, dingbats
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1}, // misc symbols and arrows
	},
	// Ranges must stay sorted: unicode.Is binary-searches the table.
	R32: []unicode.Range32{
		{Lo: 0x1F000, Hi: 0x1F02F, Stride: 1}, // mahjong tiles
		{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1}, // regional indicators (flags)
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // misc symbols and pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport and map
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental symbols
		{Lo: 0x1FA00, Hi: 0x1FAFF, Stride: 1}, // symbols and pictographs ext-A
	},
}

// isEmojiJoiner reports code points that only occur inside composed emoji
// sequences (skin tones, ZWJ, variation selectors, keycap combiner).
func isEmojiJoiner(r rune) bool {
	switch {
	case r == 0x200D: // zero-width joiner
		return true
	case r == 0xFE0E || r == 0xFE0F: // variation selectors
		return true
	case r == 0x20E3: // combining enclosing keycap
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	}
	return false
}

// CharsetClassifier rejects messages containing Latin letters, denylisted
// symbols, or any rune outside the explicit allow-set (Cyrillic letters,
// digits, a fixed punctuation set, whitespace, and emoji). Latin text in a
// Russian-language community is the strongest evasion signal there is:
// transliterated profanity and spam both lean on it, so the whole script
// is out of scope rather than individual words.
type CharsetClassifier struct{}

// NewCharsetClassifier returns the forbidden-character classifier.
func NewCharsetClassifier() *CharsetClassifier {
	return &CharsetClassifier{}
}

func (c *CharsetClassifier) Name() string { return "charset" }

// Classify scans the full rune sequence of the text. Pure and synchronous;
// ctx is accepted only to satisfy the chain contract.
func (c *CharsetClassifier) Classify(_ context.Context, in Input) *Rejection {
	for _, r := range in.Text {
		if reason := disallowedRune(r); reason != "" {
			return &Rejection{
				Category: CategoryForbiddenChars,
				Detail:   fmt.Sprintf("%s %q", reason, r),
			}
		}
	}
	return nil
}

// disallowedRune returns a short reason when r is not permitted, or ""
// when it is. Checked in denylist-first order so that denylisted symbols
// report as such even if a future allow-set change would cover them.
func disallowedRune(r rune) string {
	if unicode.Is(unicode.Latin, r) {
		return "latin letter"
	}
	for _, d := range deniedSymbols {
		if r == d {
			return "denied symbol"
		}
	}
	switch {
	case unicode.Is(unicode.Cyrillic, r):
		return ""
	case r >= '0' && r <= '9': // ASCII digits only, not the full Nd class
		return ""
	case unicode.IsSpace(r):
		return ""
	case unicode.Is(emojiRanges, r) || isEmojiJoiner(r):
		return ""
	}
	for _, a := range allowedPunct {
		if r == a {
			return ""
		}
	}
	return "character outside allow-set"
}
