package app

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/news"
)

const digestDescriptionLimit = 300

// FormatDigest renders up to max articles as a Telegram HTML message,
// featured first, then trending, then the rest in rank order, using the
// flags the pipeline set on each record. Returns "" when there is nothing
// to send.
func FormatDigest(articles []news.Article, max int, now time.Time) string {
	if len(articles) > max {
		articles = articles[:max]
	}
	if len(articles) == 0 {
		return ""
	}

	var featured, trending, rest []news.Article
	for _, a := range articles {
		switch {
		case a.Featured:
			featured = append(featured, a)
		case a.Trending:
			trending = append(trending, a)
		default:
			rest = append(rest, a)
		}
	}

	var b strings.Builder
	b.WriteString("📰 <b>Top Headlines</b>\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n\n")

	n := 1
	section := func(title, emoji string, list []news.Article) {
		if len(list) == 0 {
			return
		}
		b.WriteString(title + "\n\n")
		for _, a := range list {
			b.WriteString(formatDigestItem(a, n, emoji))
			n++
		}
	}
	section("⭐ <b>FEATURED</b>", "⭐", featured)
	section("🔥 <b>TRENDING</b>", "🔥", trending)
	section("🗞 <b>MORE HEADLINES</b>", "📰", rest)

	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("🕒 %s UTC", now.UTC().Format("02 Jan 15:04")))
	return b.String()
}

func formatDigestItem(a news.Article, number int, emoji string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%d.</b> <a href=\"%s\">%s</a>\n",
		emoji, number, html.EscapeString(a.URL), html.EscapeString(a.Title)))
	b.WriteString(fmt.Sprintf("<i>%s · %s · %d</i>\n",
		html.EscapeString(a.Source), html.EscapeString(a.Category), a.Score))
	if a.Description != "" && a.Description != news.NoDescription {
		b.WriteString(html.EscapeString(shorten(a.Description, digestDescriptionLimit)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// shorten cuts text at the last full sentence within limit runes.
func shorten(text string, limit int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := string(r[:limit])
	if i := strings.LastIndex(cut, ". "); i > 0 {
		return cut[:i+1]
	}
	return strings.TrimSpace(cut) + "..."
}
