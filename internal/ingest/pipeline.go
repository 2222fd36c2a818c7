package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/opportunity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const freshQueryLimit = 1000

// ItemStore persists opportunities and their notify state.
type ItemStore interface {
	Upsert(ctx context.Context, items []models.Opportunity) error
	GetUnnotified(ctx context.Context, limit int) ([]models.Opportunity, error)
	AppendScanLog(ctx context.Context, entry models.ScanLog) error
}

// NewsItemStore persists news send state.
type NewsItemStore interface {
	Upsert(ctx context.Context, items []models.NewsItem) error
}

// RunStats summarises one pipeline run.
type RunStats struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Sources      int           `json:"sources"`
	SourceErrors int           `json:"source_errors"`
	Raw          int           `json:"raw"`
	Filtered     int           `json:"filtered"`
	Deduped      int           `json:"deduped"`
	Fresh        int           `json:"fresh"`
}

// Pipeline runs connectors, normalization and the opportunity stages.
type Pipeline struct {
	Config    *config.Bundle
	Factory   *ConnectorFactory
	Store     ItemStore     // optional
	News      NewsItemStore // optional
	Relevance opportunity.RelevancePolicy
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

func WithStore(s ItemStore) Option { return func(p *Pipeline) { p.Store = s } }

func WithNewsStore(s NewsItemStore) Option { return func(p *Pipeline) { p.News = s } }

// WithIncludeAll disables the relevance policy. The negative filter still applies.
func WithIncludeAll() Option {
	return func(p *Pipeline) { p.Relevance = opportunity.KeepAll{} }
}

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.Now = now } }

func NewPipeline(cfg *config.Bundle, factory *ConnectorFactory, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		Config:    cfg,
		Factory:   factory,
		Relevance: opportunity.NewKeywordRelevance(cfg.Keywords),
		Logger:    logger,
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one opportunity pass and returns candidates ranked by score.
// With a store the result is the unnotified set, overlaid with this run's
// freshly computed values. Source failures are logged and counted; store
// failures abort the run.
func (p *Pipeline) Run(ctx context.Context) ([]models.Opportunity, RunStats, error) {
	stats := p.newStats()
	sources := p.Config.Registry.Filter(config.KindOpportunity)
	stats.Sources = len(sources)

	normed, raw, failures := p.collect(ctx, sources)
	stats.Raw, stats.SourceErrors = raw, failures

	kw := p.Config.Keywords
	filtered := opportunity.FilterNegative(normed, kw.NegativeKeywords)
	filtered = opportunity.FilterRelevant(filtered, p.Relevance)
	stats.Filtered = len(filtered)
	p.Logger.Info().Int("count", len(filtered)).Msg("pre_dedup")

	th := p.Config.Scoring.Thresholds
	deduped := opportunity.Dedup(filtered, opportunity.DedupOptions{
		WindowDays: th.DedupWindowDays,
		Threshold:  th.FuzzyJaroWinklerThreshold,
		Now:        p.Now,
	})
	stats.Deduped = len(deduped)
	p.Logger.Info().Int("count", len(deduped)).Msg("post_dedup")

	if limit := p.Config.Scoring.Limits.MaxCandidates; limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	enriched := p.process(deduped)

	out := enriched
	if p.Store != nil {
		var err error
		out, err = p.persist(ctx, enriched, stats)
		if err != nil {
			return nil, stats, err
		}
	}
	opportunity.SortByScore(out)

	stats.Fresh = len(out)
	stats.Duration = time.Since(stats.StartedAt)
	p.Logger.Info().
		Str("run_id", stats.RunID).
		Int("sources", stats.Sources).
		Int("source_errors", stats.SourceErrors).
		Int("raw", stats.Raw).
		Int("deduped", stats.Deduped).
		Int("fresh", stats.Fresh).
		Msg("pipeline_done")
	return out, stats, nil
}

// process applies classify, score and enrich in order.
func (p *Pipeline) process(items []models.Opportunity) []models.Opportunity {
	sc := p.Config.Scoring
	classifier := opportunity.Classifier{
		Keywords:            p.Config.Keywords,
		UrgentThresholdDays: sc.Thresholds.UrgentThresholdDays,
		Now:                 p.Now,
	}
	scorer := opportunity.Scorer{Keywords: p.Config.Keywords, Weights: sc.Weights, Now: p.Now}
	enricher := opportunity.Enricher{
		Programs: p.Config.Tracked.Programs,
		Alerts:   p.Config.Tracked.Alerts,
		Logger:   p.Logger,
	}

	out := make([]models.Opportunity, 0, len(items))
	for _, it := range items {
		out = append(out, enricher.Enrich(scorer.Score(classifier.Classify(it))))
	}
	return out
}

func (p *Pipeline) persist(ctx context.Context, items []models.Opportunity, stats RunStats) ([]models.Opportunity, error) {
	if err := p.Store.Upsert(ctx, items); err != nil {
		return nil, fmt.Errorf("upsert items: %w", err)
	}
	fresh, err := p.Store.GetUnnotified(ctx, freshQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("get unnotified: %w", err)
	}

	byURL := make(map[string]models.Opportunity, len(items))
	for _, it := range items {
		if it.CanonicalURL != "" {
			byURL[it.CanonicalURL] = it
		}
	}
	out := make([]models.Opportunity, 0, len(fresh))
	for _, row := range fresh {
		if cur, ok := byURL[row.CanonicalURL]; ok {
			out = append(out, cur)
			continue
		}
		out = append(out, row)
	}

	entry := models.ScanLog{
		ScannedAt:  p.Now().UTC(),
		RawCount:   stats.Raw,
		DedupCount: stats.Deduped,
		FreshCount: len(out),
	}
	if err := p.Store.AppendScanLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append scan log: %w", err)
	}
	return out, nil
}

// RunNews runs the news sources through connectors, normalization and dedup,
// then upserts them into the news store.
func (p *Pipeline) RunNews(ctx context.Context) (RunStats, error) {
	stats := p.newStats()
	if p.News == nil {
		return stats, errors.New("news store not configured")
	}
	sources := p.Config.Registry.Filter(config.KindNews)
	stats.Sources = len(sources)

	normed, raw, failures := p.collect(ctx, sources)
	stats.Raw, stats.SourceErrors = raw, failures

	filtered := opportunity.FilterNegative(normed, p.Config.Keywords.NegativeKeywords)
	stats.Filtered = len(filtered)
	th := p.Config.Scoring.Thresholds
	deduped := opportunity.Dedup(filtered, opportunity.DedupOptions{
		WindowDays: th.DedupWindowDays,
		Threshold:  th.FuzzyJaroWinklerThreshold,
		Now:        p.Now,
	})
	stats.Deduped = len(deduped)

	now := p.Now().UTC()
	news := make([]models.NewsItem, 0, len(deduped))
	for _, it := range deduped {
		n := ToNewsItem(it, p.Config.Scoring.News, now)
		if n.ItemKey == "" {
			continue
		}
		news = append(news, n)
	}
	if err := p.News.Upsert(ctx, news); err != nil {
		return stats, fmt.Errorf("upsert news: %w", err)
	}

	stats.Fresh = len(news)
	stats.Duration = time.Since(stats.StartedAt)
	p.Logger.Info().
		Str("run_id", stats.RunID).
		Int("sources", stats.Sources).
		Int("raw", stats.Raw).
		Int("stored", stats.Fresh).
		Msg("news_done")
	return stats, nil
}

// collect fetches every source in order and normalizes the results. Items
// without a title or URL are dropped.
func (p *Pipeline) collect(ctx context.Context, sources []config.SourceConfig) (items []models.Opportunity, raw, failures int) {
	for _, src := range sources {
		rawItems, err := p.fetchSource(ctx, src)
		if err != nil {
			failures++
			p.Logger.Warn().Err(err).
				Str("source_id", src.ID).
				Str("url", src.URL).
				Msg("source_error")
			continue
		}
		raw += len(rawItems)
		for _, r := range rawItems {
			it := Normalize(r)
			if it.Title == "" || it.ContentURL == "" {
				continue
			}
			items = append(items, it)
		}
	}
	return items, raw, failures
}

func (p *Pipeline) fetchSource(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error) {
	conn, err := p.Factory.Get(src.Parser)
	if errors.Is(err, ErrUnknownParser) {
		p.Logger.Warn().Str("source_id", src.ID).Str("parser", src.Parser).Msg("unknown parser, using rss")
		conn, err = p.Factory.Get("rss")
	}
	if err != nil {
		return nil, err
	}

	p.Logger.Debug().Str("source_id", src.ID).Str("parser", src.Parser).Msg("fetch_start")
	items, err := conn.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug().Str("source_id", src.ID).Int("items", len(items)).Msg("fetch_done")
	return items, nil
}

// SourceHealth is the outcome of probing one source.
type SourceHealth struct {
	Source config.SourceConfig
	Status string // working, broken, disabled
	Items  int
	Err    error
}

const (
	HealthWorking  = "working"
	HealthBroken   = "broken"
	HealthDisabled = "disabled"
)

// CheckSources runs every configured source's connector once. A source that
// errors or returns no items is broken.
func (p *Pipeline) CheckSources(ctx context.Context) []SourceHealth {
	if p.Config.Registry == nil {
		return nil
	}
	var out []SourceHealth
	for _, src := range p.Config.Registry.Sources {
		h := SourceHealth{Source: src}
		if !src.Runnable() {
			h.Status = HealthDisabled
			out = append(out, h)
			continue
		}
		items, err := p.fetchSource(ctx, src)
		h.Items, h.Err = len(items), err
		if err != nil || len(items) == 0 {
			h.Status = HealthBroken
		} else {
			h.Status = HealthWorking
		}
		out = append(out, h)
	}
	return out
}

func (p *Pipeline) newStats() RunStats {
	return RunStats{RunID: uuid.NewString(), StartedAt: time.Now()}
}
