package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

const summaryPreviewRunes = 220

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

// EscapeMarkdown escapes the characters that legacy Telegram Markdown treats
// as entity markers.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatOpportunity renders one item as a Markdown bullet.
func FormatOpportunity(it models.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• *%s*", EscapeMarkdown(it.Title))
	if it.Urgent {
		b.WriteString(" ⏰")
	}
	b.WriteString("\n")

	meta := []string{string(it.Category), fmt.Sprintf("%.1f", it.Score100())}
	if it.Source != "" {
		meta = append([]string{EscapeMarkdown(it.Source)}, meta...)
	}
	fmt.Fprintf(&b, "_%s_\n", strings.Join(meta, " · "))

	if it.DeadlineAt != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", it.DeadlineAt.UTC().Format("2006-01-02"))
	}
	if it.TrackedProgramName != "" {
		fmt.Fprintf(&b, "📌 %s\n", EscapeMarkdown(it.TrackedProgramName))
	}
	if s := preview(it.Summary); s != "" {
		b.WriteString(EscapeMarkdown(s))
		b.WriteString("\n")
	}
	if len(it.PrepChecklist) > 0 {
		fmt.Fprintf(&b, "Prep: %s\n", EscapeMarkdown(strings.Join(it.PrepChecklist, "; ")))
	}
	b.WriteString(EscapeMarkdown(it.ContentURL))
	return b.String()
}

// FormatNews renders one news item as a Markdown bullet.
func FormatNews(it models.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• *%s*", EscapeMarkdown(it.Title))
	if it.Important {
		b.WriteString(" ⭐")
	}
	b.WriteString("\n")

	meta := EscapeMarkdown(it.Source)
	if it.PublishedAt != nil {
		meta += " — " + it.PublishedAt.UTC().Format("2006-01-02")
	}
	if meta != "" {
		fmt.Fprintf(&b, "_%s_\n", meta)
	}
	if it.LinkSummary != "" {
		b.WriteString(EscapeMarkdown(preview(it.LinkSummary)))
		b.WriteString("\n")
	}
	b.WriteString(EscapeMarkdown(it.URL))
	return b.String()
}

// Digest composes the daily message. It returns "" when there is nothing to send.
func Digest(date time.Time, items []models.Opportunity, news []models.NewsItem) string {
	if len(items) == 0 && len(news) == 0 {
		return ""
	}
	var sections []string
	if len(items) > 0 {
		sections = append(sections, section(fmt.Sprintf("🎓 Opportunities — %s", date.Format("2006-01-02")), opportunityBullets(items)))
	}
	if len(news) > 0 {
		sections = append(sections, section("📰 AI & Research News", newsBullets(news)))
	}
	return strings.Join(sections, "\n\n")
}

// Alert composes the urgent message. It returns "" when there is nothing to send.
func Alert(items []models.Opportunity, news []models.NewsItem) string {
	if len(items) == 0 && len(news) == 0 {
		return ""
	}
	var sections []string
	if len(items) > 0 {
		sections = append(sections, section("🚨 Opportunity Alerts (urgent)", opportunityBullets(items)))
	}
	if len(news) > 0 {
		sections = append(sections, section("⚡ Important AI News", newsBullets(news)))
	}
	return strings.Join(sections, "\n\n")
}

func section(header string, bullets []string) string {
	return header + "\n\n" + strings.Join(bullets, "\n\n")
}

func opportunityBullets(items []models.Opportunity) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, FormatOpportunity(it))
	}
	return out
}

func newsBullets(items []models.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, FormatNews(it))
	}
	return out
}

// preview keeps the first paragraph of s, truncated to a short length.
func preview(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	r := []rune(s)
	if len(r) > summaryPreviewRunes {
		return strings.TrimSpace(string(r[:summaryPreviewRunes-1])) + "…"
	}
	return s
}
