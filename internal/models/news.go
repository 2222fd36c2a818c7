package models

import "time"

// NewsItem is a row of the news send-state table.
type NewsItem struct {
	ItemKey          string     `json:"item_key"`
	CanonicalURL     string     `json:"canonical_url"`
	Title            string     `json:"title"`
	Source           string     `json:"source"`
	URL              string     `json:"url"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	Score            int        `json:"score"`
	Important        bool       `json:"important"`
	FirstSeenAt      time.Time  `json:"first_seen_at"`
	LastSeenAt       time.Time  `json:"last_seen_at"`
	NotifyCount      int        `json:"notify_count"`
	LastNotifiedAt   *time.Time `json:"last_notified_at,omitempty"`
	LinkSummary      string     `json:"link_summary,omitempty"`
	WhyRead          string     `json:"why_read,omitempty"`
	SummaryFetchedAt *time.Time `json:"summary_fetched_at,omitempty"`
}

// ScanLog records the counts of one store-backed pipeline run.
type ScanLog struct {
	ID         int64     `json:"id"`
	ScannedAt  time.Time `json:"scanned_at"`
	RawCount   int       `json:"raw_count"`
	DedupCount int       `json:"dedup_count"`
	FreshCount int       `json:"fresh_count"`
}
