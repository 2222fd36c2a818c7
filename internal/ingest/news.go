package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/opportunity"
)

var (
	doiURLRe   = regexp.MustCompile(`(?i)doi\.org/(10\.\d{4,9}/[^\s?#]+)`)
	arxivURLRe = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`)
)

// MakeItemKey derives the news identity: a lowercased DOI, else an arXiv id,
// else the canonical URL. It returns "" when nothing identifies the item.
func MakeItemKey(doi, arxivID, rawURL string) string {
	if doi = strings.TrimSpace(doi); doi != "" {
		return "doi:" + strings.ToLower(doi)
	}
	if arxivID = strings.TrimSpace(arxivID); arxivID != "" {
		return "arxiv:" + arxivID
	}
	if canon := CanonicalizeURL(rawURL); canon != "" {
		return "url:" + canon
	}
	return ""
}

// identifiersFromURL pulls a DOI or arXiv id out of a link when present.
func identifiersFromURL(rawURL string) (doi, arxivID string) {
	if m := doiURLRe.FindStringSubmatch(rawURL); m != nil {
		doi = m[1]
	}
	if m := arxivURLRe.FindStringSubmatch(rawURL); m != nil {
		arxivID = m[1]
	}
	return doi, arxivID
}

// NewsImportance scores a news item: 3 points for a priority source plus one
// per announcement keyword in the title. An item is important when it comes
// from a priority source and its title carries an announcement keyword.
func NewsImportance(item models.Opportunity, policy config.NewsPolicy) (score int, important bool) {
	prioritySource := false
	for _, s := range policy.PrioritySources {
		if strings.EqualFold(strings.TrimSpace(s), item.Source) {
			prioritySource = true
			break
		}
	}

	hits := opportunity.CountKeywords(item.Title, policy.AnnouncementKeywords)
	if prioritySource {
		score += 3
	}
	score += hits
	return score, prioritySource && hits > 0
}

// ToNewsItem maps a normalized feed entry onto a news row.
func ToNewsItem(item models.Opportunity, policy config.NewsPolicy, now time.Time) models.NewsItem {
	doi, arxivID := identifiersFromURL(item.ContentURL)
	score, important := NewsImportance(item, policy)
	return models.NewsItem{
		ItemKey:      MakeItemKey(doi, arxivID, item.ContentURL),
		CanonicalURL: item.CanonicalURL,
		Title:        item.Title,
		Source:       item.Source,
		URL:          item.ContentURL,
		PublishedAt:  item.PublishedAt,
		Score:        score,
		Important:    important,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
}
