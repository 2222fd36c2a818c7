package ingest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// normalizeSpace collapses runs of whitespace into one space and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanText(s string) string {
	return normalizeSpace(sanitizeUTF8(s))
}

func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}

// TruncateText cuts a string to max runes, appending an ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	if maxLen > 1 {
		return string(r[:maxLen-1]) + "…"
	}
	return string(r[:maxLen])
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cleanText(html)
	}
	return cleanText(doc.Text())
}

// stripHTML reduces markup-bearing feed text to plain text.
// Script and style bodies are dropped and entities decoded.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return cleanText(s)
	}
	return HTMLToText(strictPolicy.Sanitize(s))
}

// FlattenText coerces decoded payload values into flat text: lists are joined
// with spaces and nil becomes empty.
func FlattenText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := FlattenText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// mergeUniqueFold appends trimmed non-empty items not already present, case-insensitively.
func mergeUniqueFold(dst []string, items []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		k := strings.ToLower(strings.TrimSpace(v))
		if k != "" {
			seen[k] = struct{}{}
		}
	}

	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		dst = append(dst, v)
		seen[k] = struct{}{}
	}

	return dst
}
