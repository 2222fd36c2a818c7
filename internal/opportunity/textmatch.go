// Package opportunity holds the pure pipeline stages: filtering, dedup,
// classification, scoring, tracked-program enrichment and selection.
// Every stage takes items by value and returns new values.
package opportunity

import (
	"regexp"
	"strings"
	"sync"
)

var wordPatterns sync.Map // keyword -> *regexp.Regexp

// ContainsKeyword reports whether keyword occurs in text, ignoring case.
// Keywords containing a space, dash, slash or colon are phrases and match as
// substrings; single words must stand alone, so "intern" does not match
// "internal".
func ContainsKeyword(text, keyword string) bool {
	k := strings.TrimSpace(keyword)
	if text == "" || k == "" {
		return false
	}
	if strings.ContainsAny(k, " -/:") {
		return strings.Contains(strings.ToLower(text), strings.ToLower(k))
	}
	return wordPattern(k).MatchString(text)
}

// AnyKeyword reports whether any keyword occurs in text.
func AnyKeyword(text string, keywords []string) bool {
	_, ok := FirstKeyword(text, keywords)
	return ok
}

// FirstKeyword returns the first keyword, in list order, found in text.
func FirstKeyword(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if ContainsKeyword(text, k) {
			return k, true
		}
	}
	return "", false
}

// CountKeywords returns how many distinct keywords occur in text.
func CountKeywords(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if ContainsKeyword(text, k) {
			n++
		}
	}
	return n
}

func wordPattern(keyword string) *regexp.Regexp {
	if re, ok := wordPatterns.Load(keyword); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_])` + regexp.QuoteMeta(keyword) + `(?:$|[^A-Za-z0-9_])`)
	actual, _ := wordPatterns.LoadOrStore(keyword, re)
	return actual.(*regexp.Regexp)
}
