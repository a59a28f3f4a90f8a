package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storozh/moderator/internal/classify"
)

// reasonTitles maps rejection categories to the admin-facing report labels.
var reasonTitles = map[classify.Category]string{
	classify.CategoryForbiddenChars: "запрещённые символы",
	classify.CategoryLink:           "ссылки",
	classify.CategoryProfanity:      "мат",
}

// Render formats a snapshot into the daily report sent to administrators.
// Pure formatting: it never touches the aggregator.
func Render(s Snapshot) string {
	if s.Checked == 0 {
		return "📊 Статистика за период:\n\nНет активности."
	}

	var b strings.Builder
	rate := float64(s.Deleted) / float64(s.Checked) * 100

	b.WriteString("📊 Статистика работы бота\n\n")
	fmt.Fprintf(&b, "📅 Период: %s — %s\n\n",
		s.Start.Format("02.01.2006 15:04"), s.End.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "📝 Проверено сообщений: %d\n", s.Checked)
	fmt.Fprintf(&b, "🗑 Удалено сообщений: %d (%.1f%%)\n", s.Deleted, rate)
	for _, cat := range classify.Categories {
		if n := s.ByReason[cat]; n > 0 {
			fmt.Fprintf(&b, "   • %s: %d\n", reasonTitles[cat], n)
		}
	}
	fmt.Fprintf(&b, "🚫 Забанено пользователей: %d\n", s.Banned)

	if len(s.ByChat) > 1 {
		b.WriteString("\nПо чатам:\n")
		ids := make([]int64, 0, len(s.ByChat))
		for id := range s.ByChat {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			c := s.ByChat[id]
			chatRate := 0.0
			if c.Checked > 0 {
				chatRate = float64(c.Deleted) / float64(c.Checked) * 100
			}
			fmt.Fprintf(&b, "• Чат %d: проверено %d, удалено %d (%.1f%%), банов %d\n",
				id, c.Checked, c.Deleted, chatRate, c.Banned)
		}
	}

	return b.String()
}
