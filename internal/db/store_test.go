package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "radar.sqlite"), zerolog.Nop(), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func item(url, title string, score float64) models.Opportunity {
	return models.Opportunity{
		Title:        title,
		Summary:      "About " + title,
		ContentURL:   url + "?utm_source=x",
		CanonicalURL: url,
		Source:       "Test",
		SourceID:     "test",
		Tags:         []string{"t"},
		Category:     models.CategoryProgram,
		Score:        score,
	}
}

func TestStoreUpsertRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := item("https://example.com/gsoc", "GSoC", 0.752)
	in.DeadlineAt = &deadline
	in.Urgent = true
	in.Category = models.CategoryInternship
	in.PrepChecklist = []string{"pick an org"}
	in.TrackedProgramID = "gsoc"
	in.TrackedProgramName = "Google Summer of Code"

	require.NoError(t, s.Upsert(ctx, []models.Opportunity{in, {Title: "no key"}}))

	got, err := s.Get(ctx, "https://example.com/gsoc")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = s.Get(ctx, "https://example.com/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreScoreScale(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []models.Opportunity{item("https://example.com/a", "A", 0.6234)}))

	var raw float64
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT score FROM items").Scan(&raw))
	assert.Equal(t, 62.3, raw, "persisted on the 0-100 scale")

	got, err := s.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 0.623, got.Score)
}

func TestStoreNotifyState(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.Opportunity{
		item("https://example.com/low", "Low", 0.2),
		item("https://example.com/high", "High", 0.9),
		item("https://example.com/mid", "Mid", 0.5),
	}))

	fresh, err := s.GetUnnotified(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	assert.Equal(t, []string{"High", "Mid", "Low"}, titles(fresh))

	limited, err := s.GetUnnotified(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.MarkNotified(ctx, []string{"https://example.com/high"}))
	first := notifiedAt(t, s, "https://example.com/high")

	clock.Advance(time.Hour)
	require.NoError(t, s.MarkNotified(ctx, []string{"https://example.com/high", "https://example.com/unknown"}))
	assert.Equal(t, first, notifiedAt(t, s, "https://example.com/high"), "second mark is a no-op")

	// A later run sees the item again with new content.
	updated := item("https://example.com/high", "High v2", 0.95)
	require.NoError(t, s.Upsert(ctx, []models.Opportunity{updated}))
	assert.Equal(t, first, notifiedAt(t, s, "https://example.com/high"), "upsert never clears notified_at")

	fresh, err = s.GetUnnotified(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mid", "Low"}, titles(fresh))

	got, err := s.Get(ctx, "https://example.com/high")
	require.NoError(t, err)
	assert.Equal(t, "High v2", got.Title)
}

func TestStorePreservesFirstSeen(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/a"

	require.NoError(t, s.Upsert(ctx, []models.Opportunity{item(url, "A", 0.5)}))
	clock.Advance(24 * time.Hour)
	require.NoError(t, s.Upsert(ctx, []models.Opportunity{item(url, "A", 0.6)}))

	var firstSeen, lastSeen string
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT first_seen_at, last_seen_at FROM items WHERE canonical_url = ?", url).Scan(&firstSeen, &lastSeen))
	assert.Equal(t, "2025-05-10T12:00:00.000000Z", firstSeen)
	assert.Equal(t, "2025-05-11T12:00:00.000000Z", lastSeen)
}

func TestStoreUnnotifiedUrgent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	urgent := item("https://example.com/u", "Urgent", 0.3)
	urgent.Urgent = true
	require.NoError(t, s.Upsert(ctx, []models.Opportunity{urgent, item("https://example.com/n", "Normal", 0.9)}))

	got, err := s.GetUnnotifiedUrgent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Urgent"}, titles(got))
}

func TestStoreScanLog(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendScanLog(ctx, models.ScanLog{RawCount: 10, DedupCount: 6, FreshCount: 4}))
	clock.Advance(time.Hour)
	require.NoError(t, s.AppendScanLog(ctx, models.ScanLog{RawCount: 3, DedupCount: 2, FreshCount: 1}))

	logs, err := s.ListScanLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 3, logs[0].RawCount, "newest first")
	assert.Equal(t, clock.Now(), logs[0].ScannedAt)
	assert.Equal(t, 6, logs[1].DedupCount)
}

func TestStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.sqlite")
	ctx := context.Background()

	s, err := Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, []models.Opportunity{item("https://example.com/a", "A", 0.5)}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUnnotified(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func news(key string, score int, important bool) models.NewsItem {
	return models.NewsItem{
		ItemKey:   key,
		Title:     key,
		Source:    "OpenAI News",
		URL:       "https://example.com/" + key,
		Score:     score,
		Important: important,
	}
}

func TestNewsStoreRepostPolicy(t *testing.T) {
	s, clock := openTestStore(t)
	ns := s.News()
	ctx := context.Background()
	policy := config.DefaultScoring().News

	require.NoError(t, ns.Upsert(ctx, []models.NewsItem{
		news("url:plain", 1, false),
		news("url:big", 5, true),
		{Title: "no key"},
	}))

	daily := DailySendPolicy(policy)
	got, err := ns.SelectToSend(ctx, 10, daily)
	require.NoError(t, err)
	assert.Equal(t, []string{"url:big", "url:plain"}, keys(got))

	require.NoError(t, ns.MarkNotified(ctx, []string{"url:big", "url:plain"}))

	got, err = ns.SelectToSend(ctx, 10, daily)
	require.NoError(t, err)
	assert.Empty(t, got, "nothing is resent inside the interval")

	clock.Advance(21 * time.Hour)
	got, err = ns.SelectToSend(ctx, 10, daily)
	require.NoError(t, err)
	assert.Equal(t, []string{"url:big"}, keys(got), "only important items repost")

	// Two more sends reach the cap of three.
	for i := 0; i < 2; i++ {
		require.NoError(t, ns.MarkNotified(ctx, []string{"url:big"}))
		clock.Advance(21 * time.Hour)
	}
	got, err = ns.SelectToSend(ctx, 10, daily)
	require.NoError(t, err)
	assert.Empty(t, got)

	it, err := ns.Get(ctx, "url:big")
	require.NoError(t, err)
	assert.Equal(t, 3, it.NotifyCount)
	require.NotNil(t, it.LastNotifiedAt)
}

func TestNewsStorePriorityPolicy(t *testing.T) {
	s, clock := openTestStore(t)
	ns := s.News()
	ctx := context.Background()
	policy := config.DefaultScoring().News

	require.NoError(t, ns.Upsert(ctx, []models.NewsItem{news("url:plain", 9, false), news("url:big", 5, true)}))

	prio := PrioritySendPolicy(policy)
	got, err := ns.SelectToSend(ctx, 10, prio)
	require.NoError(t, err)
	assert.Equal(t, []string{"url:big"}, keys(got))

	require.NoError(t, ns.MarkNotified(ctx, []string{"url:big"}))
	clock.Advance(9 * time.Hour)
	got, err = ns.SelectToSend(ctx, 10, prio)
	require.NoError(t, err)
	assert.Equal(t, []string{"url:big"}, keys(got), "8h interval has passed")

	got, err = ns.SelectToSend(ctx, 10, DailySendPolicy(policy))
	require.NoError(t, err)
	assert.Equal(t, []string{"url:plain"}, keys(got), "daily interval has not")
}

func TestNewsStoreUpsertKeepsSendState(t *testing.T) {
	s, _ := openTestStore(t)
	ns := s.News()
	ctx := context.Background()

	require.NoError(t, ns.Upsert(ctx, []models.NewsItem{news("url:a", 1, false)}))
	require.NoError(t, ns.MarkNotified(ctx, []string{"url:a"}))
	require.NoError(t, ns.UpsertSummary(ctx, "url:a", LinkSummary{Summary: "short", WhyRead: "because"}))

	updated := news("url:a", 4, true)
	updated.Title = "renamed"
	require.NoError(t, ns.Upsert(ctx, []models.NewsItem{updated}))

	it, err := ns.Get(ctx, "url:a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", it.Title)
	assert.Equal(t, 4, it.Score)
	assert.True(t, it.Important)
	assert.Equal(t, 1, it.NotifyCount)
	assert.Equal(t, "short", it.LinkSummary)
}

func TestNewsStoreSummary(t *testing.T) {
	s, clock := openTestStore(t)
	ns := s.News()
	ctx := context.Background()

	_, err := ns.GetSummary(ctx, "url:missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ns.GetSummary(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ns.Upsert(ctx, []models.NewsItem{news("url:a", 1, false)}))
	sum, err := ns.GetSummary(ctx, "url:a")
	require.NoError(t, err)
	assert.Empty(t, sum.Summary)
	assert.Nil(t, sum.FetchedAt)

	require.NoError(t, ns.UpsertSummary(ctx, "url:a", LinkSummary{Summary: "A model", WhyRead: "New API"}))
	sum, err = ns.GetSummary(ctx, "url:a")
	require.NoError(t, err)
	assert.Equal(t, "A model", sum.Summary)
	assert.Equal(t, "New API", sum.WhyRead)
	require.NotNil(t, sum.FetchedAt)
	assert.Equal(t, clock.Now(), *sum.FetchedAt)

	assert.NoError(t, ns.UpsertSummary(ctx, "", LinkSummary{Summary: "ignored"}))
}

func TestParseTimeAcceptsLegacyFormats(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)
	for _, in := range []string{
		"2025-01-02T03:04:05.123456Z",
		"2025-01-02T03:04:05.123456+00:00",
		"2025-01-02T05:04:05.123456+02:00",
	} {
		got := parseTime(in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), in)
	}
	assert.Nil(t, parseTime("yesterday"))
	assert.Nil(t, parseTime(""))
}

func titles(items []models.Opportunity) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func keys(items []models.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ItemKey)
	}
	return out
}

func notifiedAt(t *testing.T, s *Store, url string) string {
	t.Helper()
	var v string
	require.NoError(t, s.db.QueryRowContext(context.Background(),
		"SELECT notified_at FROM items WHERE canonical_url = ?", url).Scan(&v))
	return v
}
