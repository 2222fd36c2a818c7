package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed item store, keyed by canonical URL. It also holds
// the scan log and hands out the news store sharing the same file.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now for first/last-seen and notify timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the sqlite database at path and applies
// migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer per run; a single connection also keeps the pragmas in effect.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := migrateSQLite(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// News returns the news store backed by the same database.
func (s *Store) News() *NewsStore {
	return &NewsStore{db: s.db, now: s.now}
}

const itemCols = `canonical_url, title, summary, content_url, source, source_id,
	published_at, deadline_at, category, score, urgent, limited_time, tags_json, prep_json,
	tracked_program_id, tracked_program_name`

// Upsert inserts or updates items by canonical URL. Content and score are
// replaced and last_seen_at is refreshed; first_seen_at and notified_at are
// never touched on conflict. Items without a canonical URL are skipped.
// Scores are stored on the 0-100 scale.
func (s *Store) Upsert(ctx context.Context, items []models.Opportunity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(s.now())
	for _, it := range items {
		if it.CanonicalURL == "" {
			continue
		}
		tags, err := json.Marshal(nonNil(it.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		var prep any
		if len(it.PrepChecklist) > 0 {
			b, err := json.Marshal(it.PrepChecklist)
			if err != nil {
				return fmt.Errorf("encode prep checklist: %w", err)
			}
			prep = string(b)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (
				canonical_url, title, title_norm, summary, summary_norm, content_url,
				source, source_id, published_at, deadline_at, category, score,
				urgent, limited_time, tags_json, prep_json,
				tracked_program_id, tracked_program_name,
				first_seen_at, last_seen_at, notified_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,NULL)
			ON CONFLICT(canonical_url) DO UPDATE SET
				title = excluded.title,
				title_norm = excluded.title_norm,
				summary = excluded.summary,
				summary_norm = excluded.summary_norm,
				content_url = excluded.content_url,
				source = excluded.source,
				source_id = excluded.source_id,
				published_at = excluded.published_at,
				deadline_at = excluded.deadline_at,
				category = excluded.category,
				score = excluded.score,
				urgent = excluded.urgent,
				limited_time = excluded.limited_time,
				tags_json = excluded.tags_json,
				prep_json = excluded.prep_json,
				tracked_program_id = excluded.tracked_program_id,
				tracked_program_name = excluded.tracked_program_name,
				last_seen_at = excluded.last_seen_at`,
			it.CanonicalURL,
			it.Title,
			models.NormalizeTitle(it.Title),
			it.Summary,
			models.NormalizeTitle(it.Summary),
			it.ContentURL,
			it.Source,
			it.SourceID,
			formatTimePtr(it.PublishedAt),
			formatTimePtr(it.DeadlineAt),
			string(it.Category),
			it.Score100(),
			boolInt(it.Urgent),
			boolInt(it.LimitedTime),
			string(tags),
			prep,
			nilIfEmpty(it.TrackedProgramID),
			nilIfEmpty(it.TrackedProgramName),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", it.CanonicalURL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// GetUnnotified returns rows never delivered, highest score first.
func (s *Store) GetUnnotified(ctx context.Context, limit int) ([]models.Opportunity, error) {
	return s.queryItems(ctx, `SELECT `+itemCols+` FROM items
		WHERE notified_at IS NULL
		ORDER BY score DESC, canonical_url
		LIMIT ?`, limit)
}

// GetUnnotifiedUrgent is GetUnnotified restricted to urgent rows.
func (s *Store) GetUnnotifiedUrgent(ctx context.Context, limit int) ([]models.Opportunity, error) {
	return s.queryItems(ctx, `SELECT `+itemCols+` FROM items
		WHERE notified_at IS NULL AND urgent = 1
		ORDER BY score DESC, canonical_url
		LIMIT ?`, limit)
}

// Get returns one row by canonical URL, or ErrNotFound.
func (s *Store) Get(ctx context.Context, canonicalURL string) (models.Opportunity, error) {
	items, err := s.queryItems(ctx, `SELECT `+itemCols+` FROM items WHERE canonical_url = ?`, canonicalURL)
	if err != nil {
		return models.Opportunity{}, err
	}
	if len(items) == 0 {
		return models.Opportunity{}, ErrNotFound
	}
	return items[0], nil
}

// MarkNotified stamps notified_at on the given rows. Rows already notified
// keep their original timestamp.
func (s *Store) MarkNotified(ctx context.Context, canonicalURLs []string) error {
	if len(canonicalURLs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark notified: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(s.now())
	for _, u := range canonicalURLs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE items SET notified_at = ? WHERE canonical_url = ? AND notified_at IS NULL", now, u); err != nil {
			return fmt.Errorf("mark notified %s: %w", u, err)
		}
	}
	return tx.Commit()
}

// AppendScanLog records the counts of one store-backed run.
func (s *Store) AppendScanLog(ctx context.Context, entry models.ScanLog) error {
	scannedAt := entry.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scan_log (scanned_at, raw_count, dedup_count, fresh_count) VALUES (?,?,?,?)",
		formatTime(scannedAt), entry.RawCount, entry.DedupCount, entry.FreshCount)
	if err != nil {
		return fmt.Errorf("append scan log: %w", err)
	}
	return nil
}

// ListScanLogs returns the most recent runs, newest first.
func (s *Store) ListScanLogs(ctx context.Context, limit int) ([]models.ScanLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, scanned_at, raw_count, dedup_count, fresh_count FROM scan_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list scan log: %w", err)
	}
	defer rows.Close()

	var out []models.ScanLog
	for rows.Next() {
		var e models.ScanLog
		var scannedAt sql.NullString
		if err := rows.Scan(&e.ID, &scannedAt, &e.RawCount, &e.DedupCount, &e.FreshCount); err != nil {
			return nil, fmt.Errorf("scan scan_log: %w", err)
		}
		if t := parseTime(scannedAt.String); t != nil {
			e.ScannedAt = *t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]models.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanItem(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var title, summary, contentURL, source, sourceID, category sql.NullString
	var published, deadline, tagsJSON, prepJSON, programID, programName sql.NullString
	var score sql.NullFloat64
	var urgent, limited sql.NullInt64

	err := scan(
		&o.CanonicalURL, &title, &summary, &contentURL, &source, &sourceID,
		&published, &deadline, &category, &score, &urgent, &limited, &tagsJSON, &prepJSON,
		&programID, &programName,
	)
	if err != nil {
		return o, err
	}

	o.Title = title.String
	o.Summary = summary.String
	o.ContentURL = contentURL.String
	o.Source = source.String
	o.SourceID = sourceID.String
	o.PublishedAt = parseTime(published.String)
	o.DeadlineAt = parseTime(deadline.String)
	o.Category = models.ParseCategory(category.String)
	o.Score = models.ScoreFrom100(score.Float64)
	o.Urgent = urgent.Int64 != 0
	o.LimitedTime = limited.Int64 != 0
	o.TrackedProgramID = programID.String
	o.TrackedProgramName = programName.String

	o.Tags = []string{}
	if tagsJSON.String != "" {
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err == nil && tags != nil {
			o.Tags = tags
		}
	}
	if prepJSON.String != "" {
		var prep []string
		if err := json.Unmarshal([]byte(prepJSON.String), &prep); err == nil && len(prep) > 0 {
			o.PrepChecklist = prep
		}
	}
	return o, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
