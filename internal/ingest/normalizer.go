package ingest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

var (
	multiSlashRe = regexp.MustCompile(`/{2,}`)
	// hostPortRe matches a scheme-less "host:port" prefix, which url.Parse reads as a scheme.
	hostPortRe = regexp.MustCompile(`^[A-Za-z0-9.-]+:[0-9]+([/?#]|$)`)
)

// trackingParams are dropped from canonical URLs in addition to any utm_* key.
var trackingParams = map[string]struct{}{
	"gclid":  {},
	"fbclid": {},
	"mc_cid": {},
	"mc_eid": {},
	"ref":    {},
	"source": {},
}

// Normalize converts a raw connector item into a canonical Opportunity.
// Unparsable dates become nil; the item itself never fails.
func Normalize(raw models.RawItem) models.Opportunity {
	contentURL := strings.TrimSpace(sanitizeUTF8(raw.URL))
	source := cleanText(raw.Source)
	sourceID := strings.TrimSpace(raw.SourceID)
	if sourceID == "" {
		sourceID = source
	}

	return models.Opportunity{
		Title:        stripHTML(raw.Title),
		Summary:      stripHTML(raw.Summary),
		ContentURL:   contentURL,
		CanonicalURL: CanonicalizeURL(contentURL),
		Source:       source,
		SourceID:     sourceID,
		PublishedAt:  ParseDate(raw.Published),
		DeadlineAt:   ParseDate(raw.Deadline),
		Tags:         mergeUniqueFold(make([]string, 0, len(raw.Tags)), raw.Tags),
		Category:     models.CategoryProgram,
	}
}

// CanonicalizeURL produces the identity key for an item URL: lowercase scheme
// and host (https when missing), collapsed and right-trimmed path, tracking
// parameters removed, remaining query pairs kept in their original order and
// the fragment dropped. The function is idempotent.
func CanonicalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if hostPortRe.MatchString(rawURL) {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Scheme == "" && u.Host == "" && !strings.HasPrefix(rawURL, "/") {
		if withScheme, err := url.Parse("https://" + rawURL); err == nil {
			u = withScheme
		}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	if u.Opaque != "" {
		if q := cleanQuery(u.RawQuery); q != "" {
			return scheme + ":" + u.Opaque + "?" + q
		}
		return scheme + ":" + u.Opaque
	}

	path := multiSlashRe.ReplaceAllString(u.EscapedPath(), "/")
	path = strings.TrimRight(path, "/")

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(path)
	if q := cleanQuery(u.RawQuery); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}

// cleanQuery drops tracking pairs, empty segments and exact duplicates without reordering.
func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	seen := make(map[string]struct{})
	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		key = strings.ToLower(key)
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		if _, ok := trackingParams[key]; ok {
			continue
		}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
