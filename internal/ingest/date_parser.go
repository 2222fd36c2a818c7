package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var fallbackLayouts = []string{
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon, 2 Jan 2006",
	"2006-01-02 15:04:05",
}

var (
	isoDateRe   = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	monthNameRe = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(20\d{2})\b`)
)

// ParseDate parses loosely formatted date text into a UTC instant.
// Text without a zone is read as UTC. Unparsable input yields nil.
func ParseDate(text string) *time.Time {
	text = cleanDateString(sanitizeUTF8(text))
	if text == "" {
		return nil
	}

	if t, err := dateparse.ParseIn(text, time.UTC); err == nil {
		return utcPtr(t)
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return utcPtr(t)
		}
	}
	if t, ok := parseDateWithRegex(text); ok {
		return utcPtr(t)
	}
	return nil
}

func utcPtr(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}

// parseDateWithRegex pulls the first recognisable date out of surrounding prose.
func parseDateWithRegex(text string) (time.Time, bool) {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t, true
		}
	}

	if m := monthNameRe.FindStringSubmatch(text); len(m) == 4 {
		month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:3])
		dateStr := fmt.Sprintf("%s %s %s", month, m[2], m[3])
		if t, err := time.Parse("Jan 2 2006", dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cleanDateString removes common label prefixes such as "Deadline:".
func cleanDateString(s string) string {
	prefixes := []string{
		"closing date:", "deadline:", "apply by:", "open:", "publication date:",
		"due date:", "expires:", "ends:", "published:",
	}
	sLower := strings.ToLower(s)
	for _, p := range prefixes {
		if idx := strings.Index(sLower, p); idx != -1 {
			s = s[idx+len(p):]
			sLower = sLower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}
