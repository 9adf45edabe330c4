package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/newsletter/internal/news"
)

const summaryLen = 300

// RenderDigest formats the digests as Telegram HTML.
func RenderDigest(title string, digests []news.TopicDigest, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📰 <b>%s</b>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "%s\n", date.Format("2006-01-02"))
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")

	for _, d := range digests {
		if d.Empty() {
			continue
		}
		fmt.Fprintf(&b, "\n🔎 <b>%s</b>\n", html.EscapeString(d.Topic))
		renderSide(&b, "🇰🇷 Domestic", d.Domestic)
		renderSide(&b, "🌍 Foreign", d.Foreign)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSide(b *strings.Builder, heading string, items []news.ScoredItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n<b>%s</b>\n", heading)
	for i, it := range items {
		fmt.Fprintf(b, "%d. <a href=\"%s\">%s</a>\n", i+1, html.EscapeString(it.Link), html.EscapeString(it.Title))

		meta := []string{strconv.FormatFloat(it.RelevanceScore, 'f', 1, 64)}
		if it.Category != "" && it.Category != news.CategoryPlaceholder {
			meta = append(meta, string(it.Category))
		}
		if it.Source != "" {
			meta = append(meta, it.Source)
		}
		fmt.Fprintf(b, "<i>%s</i>\n", html.EscapeString(strings.Join(meta, " · ")))

		if s := shorten(it.SummaryOrDescription(), summaryLen); s != "" {
			fmt.Fprintf(b, "%s\n", html.EscapeString(s))
		}
	}
}

// shorten keeps whole sentences up to n runes when possible.
func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, ". "); i > n/3 {
		return cut[:i+1]
	}
	return cut + "..."
}
