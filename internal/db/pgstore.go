package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres item store used when DATABASE_URL is set. It has
// the same semantics as the sqlite Store.
type PGStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, now: time.Now}
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

const pgItemCols = `canonical_url, title, summary, content_url, source, source_id,
	published_at, deadline_at, category, score, urgent, limited_time, tags, prep_checklist,
	tracked_program_id, tracked_program_name`

func (s *PGStore) Upsert(ctx context.Context, items []models.Opportunity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := s.now().UTC()
	for _, it := range items {
		if it.CanonicalURL == "" {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO items (
				canonical_url, title, title_norm, summary, summary_norm, content_url,
				source, source_id, published_at, deadline_at, category, score,
				urgent, limited_time, tags, prep_checklist,
				tracked_program_id, tracked_program_name, first_seen_at, last_seen_at
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16,
				$17, $18, $19, $19
			)
			ON CONFLICT (canonical_url) DO UPDATE SET
				title = EXCLUDED.title,
				title_norm = EXCLUDED.title_norm,
				summary = EXCLUDED.summary,
				summary_norm = EXCLUDED.summary_norm,
				content_url = EXCLUDED.content_url,
				source = EXCLUDED.source,
				source_id = EXCLUDED.source_id,
				published_at = EXCLUDED.published_at,
				deadline_at = EXCLUDED.deadline_at,
				category = EXCLUDED.category,
				score = EXCLUDED.score,
				urgent = EXCLUDED.urgent,
				limited_time = EXCLUDED.limited_time,
				tags = EXCLUDED.tags,
				prep_checklist = EXCLUDED.prep_checklist,
				tracked_program_id = EXCLUDED.tracked_program_id,
				tracked_program_name = EXCLUDED.tracked_program_name,
				last_seen_at = EXCLUDED.last_seen_at`,
			it.CanonicalURL,                    // $1
			it.Title,                           // $2
			models.NormalizeTitle(it.Title),    // $3
			it.Summary,                         // $4
			models.NormalizeTitle(it.Summary),  // $5
			it.ContentURL,                      // $6
			it.Source,                          // $7
			it.SourceID,                        // $8
			it.PublishedAt,                     // $9
			it.DeadlineAt,                      // $10
			string(it.Category),                // $11
			it.Score100(),                      // $12
			it.Urgent,                          // $13
			it.LimitedTime,                     // $14
			nonNil(it.Tags),                    // $15
			it.PrepChecklist,                   // $16
			nilIfEmpty(it.TrackedProgramID),    // $17
			nilIfEmpty(it.TrackedProgramName),  // $18
			now,                                // $19
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", it.CanonicalURL, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *PGStore) GetUnnotified(ctx context.Context, limit int) ([]models.Opportunity, error) {
	return s.queryItems(ctx, `SELECT `+pgItemCols+` FROM items
		WHERE notified_at IS NULL
		ORDER BY score DESC, canonical_url
		LIMIT $1`, limit)
}

func (s *PGStore) GetUnnotifiedUrgent(ctx context.Context, limit int) ([]models.Opportunity, error) {
	return s.queryItems(ctx, `SELECT `+pgItemCols+` FROM items
		WHERE notified_at IS NULL AND urgent
		ORDER BY score DESC, canonical_url
		LIMIT $1`, limit)
}

func (s *PGStore) Get(ctx context.Context, canonicalURL string) (models.Opportunity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgItemCols+` FROM items WHERE canonical_url = $1`, canonicalURL)
	o, err := scanPGItem(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Opportunity{}, ErrNotFound
	}
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("get %s: %w", canonicalURL, err)
	}
	return o, nil
}

func (s *PGStore) MarkNotified(ctx context.Context, canonicalURLs []string) error {
	if len(canonicalURLs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		"UPDATE items SET notified_at = $1 WHERE canonical_url = ANY($2) AND notified_at IS NULL",
		s.now().UTC(), canonicalURLs)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func (s *PGStore) AppendScanLog(ctx context.Context, entry models.ScanLog) error {
	scannedAt := entry.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO scan_log (scanned_at, raw_count, dedup_count, fresh_count) VALUES ($1, $2, $3, $4)",
		scannedAt.UTC(), entry.RawCount, entry.DedupCount, entry.FreshCount)
	if err != nil {
		return fmt.Errorf("append scan log: %w", err)
	}
	return nil
}

func (s *PGStore) ListScanLogs(ctx context.Context, limit int) ([]models.ScanLog, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, scanned_at, raw_count, dedup_count, fresh_count FROM scan_log ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list scan log: %w", err)
	}
	defer rows.Close()

	var out []models.ScanLog
	for rows.Next() {
		var e models.ScanLog
		if err := rows.Scan(&e.ID, &e.ScannedAt, &e.RawCount, &e.DedupCount, &e.FreshCount); err != nil {
			return nil, fmt.Errorf("scan scan_log: %w", err)
		}
		e.ScannedAt = e.ScannedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) queryItems(ctx context.Context, query string, args ...any) ([]models.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		o, err := scanPGItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanPGItem(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var category string
	var score float64
	var programID, programName *string

	err := scan(
		&o.CanonicalURL, &o.Title, &o.Summary, &o.ContentURL, &o.Source, &o.SourceID,
		&o.PublishedAt, &o.DeadlineAt, &category, &score, &o.Urgent, &o.LimitedTime, &o.Tags, &o.PrepChecklist,
		&programID, &programName,
	)
	if err != nil {
		return o, err
	}

	o.Category = models.ParseCategory(category)
	o.Score = models.ScoreFrom100(score)
	if o.Tags == nil {
		o.Tags = []string{}
	}
	if len(o.PrepChecklist) == 0 {
		o.PrepChecklist = nil
	}
	if programID != nil {
		o.TrackedProgramID = *programID
	}
	if programName != nil {
		o.TrackedProgramName = *programName
	}
	for _, t := range []*time.Time{o.PublishedAt, o.DeadlineAt} {
		if t != nil {
			*t = t.UTC()
		}
	}
	return o, nil
}
