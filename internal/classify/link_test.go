package classify

import (
	"context"
	"testing"

	"github.com/storozh/moderator/internal/message"
)

func TestLinkClassifyPatterns(t *testing.T) {
	c := NewLinkClassifier()

	tests := []struct {
		name     string
		input    string
		rejected bool
	}{
		{"http scheme", "зайди на http://x.com", true},
		{"https scheme", "https://пример.рф/страница", true},
		{"bare www", "смотри www.пример.рф", true},
		{"tme short link", "подпишись t.me/канал", true},
		{"telegram me", "telegram.me/кто-то", true},
		{"tg scheme", "tg://resolve?domain=кто-то", true},
		{"custom scheme", "ftp://файлы", true},
		{"clean text", "привет, как дела?", false},
		{"dot but no link", "т.е. вот так", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := c.Classify(context.Background(), Input{Text: tt.input})
			if (rej != nil) != tt.rejected {
				t.Fatalf("Classify(%q) = %+v, want rejected=%v", tt.input, rej, tt.rejected)
			}
			if rej != nil && rej.Category != CategoryLink {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.input, rej.Category, CategoryLink)
			}
		})
	}
}

func TestLinkClassifyEntities(t *testing.T) {
	c := NewLinkClassifier()

	// Entity annotations catch links even when the visible text is clean:
	// the platform already resolved the target.
	in := Input{
		Text: "нажми сюда",
		Entities: []message.EntitySpan{
			{Type: message.EntityTextLink, Offset: 0, Length: 10, URL: "http://spam.example"},
		},
	}
	rej := c.Classify(context.Background(), in)
	if rej == nil || rej.Category != CategoryLink {
		t.Fatalf("expected link rejection from entity, got %+v", rej)
	}
	if rej.Detail != "entity:text_link" {
		t.Errorf("Detail = %q, want entity:text_link", rej.Detail)
	}

	// Non-link entities are ignored.
	in = Input{
		Text:     "просто жирный текст",
		Entities: []message.EntitySpan{{Type: "bold", Offset: 0, Length: 6}},
	}
	if rej := c.Classify(context.Background(), in); rej != nil {
		t.Fatalf("bold entity should not reject, got %+v", rej)
	}
}
