package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/api"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/db"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/logging"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/notify"
	"github.com/rs/zerolog"
)

// itemStore is satisfied by both db.Store and db.PGStore.
type itemStore interface {
	ingest.ItemStore
	api.ItemReader
	MarkNotified(ctx context.Context, canonicalURLs []string) error
}

// app holds the dependencies shared by every subcommand.
type app struct {
	settings *config.Settings
	cfg      *config.Bundle
	logger   zerolog.Logger

	fetcher  *ingest.RateLimitedFetcher
	pipeline *ingest.Pipeline

	items itemStore
	news  *db.NewsStore

	closers []func() error
}

type appOptions struct {
	stores     bool
	includeAll bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if configDir != "" {
		settings.ConfigDir = configDir
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	logger, err := logging.New(settings.Environment, settings.LogLevel)
	if err != nil {
		return nil, err
	}

	bundle, err := config.Load(settings.ConfigDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", settings.ConfigDir).Msg("config_degraded")
	}

	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{
		TimeoutSeconds:    settings.HTTPTimeoutSeconds,
		AllowPrivateHosts: settings.AllowPrivateHosts,
	}, logger)
	robots := ingest.NewRobotsChecker(fetcher, "", 0)
	factory := ingest.NewConnectorFactory(fetcher, robots, logger)

	var pipelineOpts []ingest.Option
	if opts.includeAll {
		pipelineOpts = append(pipelineOpts, ingest.WithIncludeAll())
	}

	a := &app{
		settings: settings,
		cfg:      bundle,
		logger:   logger,
		fetcher:  fetcher,
		pipeline: ingest.NewPipeline(bundle, factory, logger, pipelineOpts...),
	}

	if opts.stores {
		if err := a.openStores(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

// openStores opens the item store (Postgres when DATABASE_URL is set,
// sqlite otherwise) and the sqlite news store, then attaches both to the pipeline.
func (a *app) openStores(ctx context.Context) error {
	if a.settings.UsePostgres() {
		pool, err := db.Connect(ctx, a.settings.DatabaseURL)
		if err != nil {
			return err
		}
		if err := db.ApplyMigrations(ctx, pool, a.logger); err != nil {
			pool.Close()
			return fmt.Errorf("migrate postgres: %w", err)
		}
		pg := db.NewPGStore(pool)
		a.items = pg
		a.closers = append(a.closers, pg.Close)
	} else {
		store, err := db.Open(ctx, a.settings.OpportunityDBPath(), a.logger)
		if err != nil {
			return err
		}
		a.items = store
		a.closers = append(a.closers, store.Close)
	}

	newsDB, err := db.Open(ctx, a.settings.NewsDBPath(), a.logger)
	if err != nil {
		return err
	}
	a.news = newsDB.News()
	a.closers = append(a.closers, newsDB.Close)

	a.pipeline.Store = a.items
	a.pipeline.News = a.news
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// deliverer prints to out on dry runs and posts to Telegram otherwise.
func (a *app) deliverer(dryRun bool, out io.Writer) (notify.Deliverer, error) {
	if dryRun {
		return notify.Writer{W: out}, nil
	}
	if a.settings.TelegramToken == "" {
		return nil, errors.New("TG_TOKEN and TG_CHAT_ID are required unless --dry-run is set")
	}
	return notify.NewTelegram(a.settings.TelegramToken, a.settings.TelegramChatID, a.logger), nil
}
