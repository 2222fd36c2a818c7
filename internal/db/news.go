package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

// NewsStore tracks which news items were sent. Ordinary items go out once;
// important ones may be resent up to a cap, spaced by a minimum interval.
type NewsStore struct {
	db  *sql.DB
	now func() time.Time
}

// SendPolicy controls SelectToSend.
type SendPolicy struct {
	MaxImportantReposts int
	MinRepostInterval   time.Duration
	RequireImportant    bool
}

// DailySendPolicy is the digest policy: any unsent item, or an important
// item last sent more than the daily interval ago.
func DailySendPolicy(p config.NewsPolicy) SendPolicy {
	return SendPolicy{
		MaxImportantReposts: p.ImportantMaxReposts,
		MinRepostInterval:   time.Duration(p.DailyRepostIntervalHours) * time.Hour,
	}
}

// PrioritySendPolicy only considers important items, with the shorter interval.
func PrioritySendPolicy(p config.NewsPolicy) SendPolicy {
	return SendPolicy{
		MaxImportantReposts: p.ImportantMaxReposts,
		MinRepostInterval:   time.Duration(p.PriorityRepostIntervalHours) * time.Hour,
		RequireImportant:    true,
	}
}

// LinkSummary is the cached summary of a news link.
type LinkSummary struct {
	Summary   string
	WhyRead   string
	FetchedAt *time.Time
}

const newsCols = `item_key, canonical_url, title, source, url, published_at, score, important,
	first_seen_at, last_seen_at, notify_count, last_notified_at, link_summary, why_read, summary_fetched_at`

// Upsert inserts or refreshes news rows. Send state, first_seen_at and any
// cached summary survive updates.
func (n *NewsStore) Upsert(ctx context.Context, items []models.NewsItem) error {
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin news upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(n.now())
	for _, it := range items {
		if it.ItemKey == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ai_items (
				item_key, canonical_url, title, source, url, published_at, score, important,
				first_seen_at, last_seen_at, notify_count, last_notified_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,0,NULL)
			ON CONFLICT(item_key) DO UPDATE SET
				canonical_url = excluded.canonical_url,
				title = excluded.title,
				source = excluded.source,
				url = excluded.url,
				published_at = excluded.published_at,
				score = excluded.score,
				important = excluded.important,
				last_seen_at = excluded.last_seen_at`,
			it.ItemKey,
			it.CanonicalURL,
			it.Title,
			it.Source,
			it.URL,
			formatTimePtr(it.PublishedAt),
			it.Score,
			boolInt(it.Important),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert news %s: %w", it.ItemKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit news upsert: %w", err)
	}
	return nil
}

// SelectToSend returns items eligible for delivery: never sent, or important
// with fewer than MaxImportantReposts sends and the last one older than
// MinRepostInterval. Highest score first, then most recently published.
func (n *NewsStore) SelectToSend(ctx context.Context, limit int, policy SendPolicy) ([]models.NewsItem, error) {
	cutoff := formatTime(n.now().Add(-policy.MinRepostInterval))

	where := `(COALESCE(notify_count, 0) = 0 OR (important = 1 AND notify_count < ?
		AND (last_notified_at IS NULL OR last_notified_at < ?)))`
	if policy.RequireImportant {
		where = "important = 1 AND " + where
	}

	rows, err := n.db.QueryContext(ctx, `SELECT `+newsCols+` FROM ai_items
		WHERE `+where+`
		ORDER BY score DESC, published_at DESC, item_key
		LIMIT ?`, policy.MaxImportantReposts, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select news: %w", err)
	}
	defer rows.Close()

	var out []models.NewsItem
	for rows.Next() {
		it, err := scanNews(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MarkNotified bumps notify_count and stamps last_notified_at.
func (n *NewsStore) MarkNotified(ctx context.Context, itemKeys []string) error {
	if len(itemKeys) == 0 {
		return nil
	}
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin news mark: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(n.now())
	for _, k := range itemKeys {
		if _, err := tx.ExecContext(ctx, `UPDATE ai_items
			SET notify_count = COALESCE(notify_count, 0) + 1, last_notified_at = ?
			WHERE item_key = ?`, now, k); err != nil {
			return fmt.Errorf("mark news %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Get returns one news row, or ErrNotFound.
func (n *NewsStore) Get(ctx context.Context, itemKey string) (models.NewsItem, error) {
	row := n.db.QueryRowContext(ctx, `SELECT `+newsCols+` FROM ai_items WHERE item_key = ?`, itemKey)
	it, err := scanNews(row.Scan)
	if isNoRows(err) {
		return models.NewsItem{}, ErrNotFound
	}
	if err != nil {
		return models.NewsItem{}, fmt.Errorf("get news %s: %w", itemKey, err)
	}
	return it, nil
}

// GetSummary returns the cached link summary, or ErrNotFound when the item
// does not exist.
func (n *NewsStore) GetSummary(ctx context.Context, itemKey string) (LinkSummary, error) {
	if itemKey == "" {
		return LinkSummary{}, ErrNotFound
	}
	var summary, why, fetched sql.NullString
	err := n.db.QueryRowContext(ctx,
		"SELECT link_summary, why_read, summary_fetched_at FROM ai_items WHERE item_key = ?", itemKey).
		Scan(&summary, &why, &fetched)
	if isNoRows(err) {
		return LinkSummary{}, ErrNotFound
	}
	if err != nil {
		return LinkSummary{}, fmt.Errorf("get summary %s: %w", itemKey, err)
	}
	return LinkSummary{Summary: summary.String, WhyRead: why.String, FetchedAt: parseTime(fetched.String)}, nil
}

// UpsertSummary stores a link summary on an existing item. A nil FetchedAt
// means now. Unknown keys are ignored.
func (n *NewsStore) UpsertSummary(ctx context.Context, itemKey string, s LinkSummary) error {
	if itemKey == "" {
		return nil
	}
	fetched := n.now()
	if s.FetchedAt != nil {
		fetched = *s.FetchedAt
	}
	_, err := n.db.ExecContext(ctx,
		"UPDATE ai_items SET link_summary = ?, why_read = ?, summary_fetched_at = ? WHERE item_key = ?",
		s.Summary, s.WhyRead, formatTime(fetched), itemKey)
	if err != nil {
		return fmt.Errorf("upsert summary %s: %w", itemKey, err)
	}
	return nil
}

func scanNews(scan func(dest ...any) error) (models.NewsItem, error) {
	var it models.NewsItem
	var canonical, title, source, url, published, firstSeen, lastSeen, lastNotified sql.NullString
	var summary, why, fetched sql.NullString
	var score, important, count sql.NullInt64

	err := scan(&it.ItemKey, &canonical, &title, &source, &url, &published, &score, &important,
		&firstSeen, &lastSeen, &count, &lastNotified, &summary, &why, &fetched)
	if err != nil {
		return it, err
	}

	it.CanonicalURL = canonical.String
	it.Title = title.String
	it.Source = source.String
	it.URL = url.String
	it.PublishedAt = parseTime(published.String)
	it.Score = int(score.Int64)
	it.Important = important.Int64 != 0
	it.NotifyCount = int(count.Int64)
	it.LastNotifiedAt = parseTime(lastNotified.String)
	it.LinkSummary = summary.String
	it.WhyRead = why.String
	it.SummaryFetchedAt = parseTime(fetched.String)
	if t := parseTime(firstSeen.String); t != nil {
		it.FirstSeenAt = *t
	}
	if t := parseTime(lastSeen.String); t != nil {
		it.LastSeenAt = *t
	}
	return it, nil
}
