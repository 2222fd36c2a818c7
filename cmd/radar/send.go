package main

import (
	"context"
	"fmt"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/db"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/notify"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/opportunity"
	"github.com/rs/zerolog"
)

type pipelineRunner interface {
	Run(ctx context.Context) ([]models.Opportunity, ingest.RunStats, error)
	RunNews(ctx context.Context) (ingest.RunStats, error)
}

type newsQueue interface {
	SelectToSend(ctx context.Context, limit int, policy db.SendPolicy) ([]models.NewsItem, error)
	MarkNotified(ctx context.Context, itemKeys []string) error
}

type notifiedMarker interface {
	MarkNotified(ctx context.Context, canonicalURLs []string) error
}

// sender runs both streams, composes one message and records what was sent.
type sender struct {
	runner    pipelineRunner
	items     notifiedMarker
	news      newsQueue
	deliverer notify.Deliverer
	scoring   config.Scoring
	logger    zerolog.Logger
	dryRun    bool
}

func (a *app) newSender(d notify.Deliverer, dryRun bool) *sender {
	return &sender{
		runner:    a.pipeline,
		items:     a.items,
		news:      a.news,
		deliverer: d,
		scoring:   a.cfg.Scoring,
		logger:    a.logger,
		dryRun:    dryRun,
	}
}

// Daily sends the digest: the top unnotified items plus news due for (re)posting.
func (s *sender) Daily(ctx context.Context, now time.Time) error {
	candidates, err := s.collect(ctx)
	if err != nil {
		return err
	}
	limits := s.scoring.Limits
	items := opportunity.SelectDaily(candidates, limits.DailyMaxItems)
	news, err := s.news.SelectToSend(ctx, limits.DailyMaxNews, db.DailySendPolicy(s.scoring.News))
	if err != nil {
		return fmt.Errorf("select news: %w", err)
	}
	return s.send(ctx, "daily", notify.Digest(now, items, news), items, news)
}

// Priority sends urgent items and important news.
func (s *sender) Priority(ctx context.Context) error {
	candidates, err := s.collect(ctx)
	if err != nil {
		return err
	}
	limits := s.scoring.Limits
	items := opportunity.SelectPriority(candidates, limits.PriorityMaxItems)
	news, err := s.news.SelectToSend(ctx, limits.PriorityMaxNews, db.PrioritySendPolicy(s.scoring.News))
	if err != nil {
		return fmt.Errorf("select news: %w", err)
	}
	return s.send(ctx, "priority", notify.Alert(items, news), items, news)
}

func (s *sender) collect(ctx context.Context) ([]models.Opportunity, error) {
	candidates, stats, err := s.runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("opportunity run: %w", err)
	}
	s.logger.Info().Str("run_id", stats.RunID).Int("candidates", len(candidates)).Msg("opportunities_ready")

	if _, err := s.runner.RunNews(ctx); err != nil {
		return nil, fmt.Errorf("news run: %w", err)
	}
	return candidates, nil
}

func (s *sender) send(ctx context.Context, kind, text string, items []models.Opportunity, news []models.NewsItem) error {
	if text == "" {
		s.logger.Info().Str("kind", kind).Msg("nothing_to_send")
		return nil
	}
	if err := s.deliverer.Deliver(ctx, text); err != nil {
		return fmt.Errorf("deliver %s: %w", kind, err)
	}
	if s.dryRun {
		return nil
	}

	urls := make([]string, 0, len(items))
	for _, it := range items {
		if it.CanonicalURL != "" {
			urls = append(urls, it.CanonicalURL)
		}
	}
	if err := s.items.MarkNotified(ctx, urls); err != nil {
		return fmt.Errorf("mark items notified: %w", err)
	}

	keys := make([]string, 0, len(news))
	for _, n := range news {
		keys = append(keys, n.ItemKey)
	}
	if err := s.news.MarkNotified(ctx, keys); err != nil {
		return fmt.Errorf("mark news notified: %w", err)
	}

	s.logger.Info().Str("kind", kind).Int("items", len(urls)).Int("news", len(keys)).Msg("delivered")
	return nil
}
