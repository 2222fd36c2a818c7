package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/mmcdole/gofeed"
)

const maxFeedEntries = 50

// rssConnector reads RSS and Atom feeds.
type rssConnector struct {
	fetcher Fetcher
}

func (c *rssConnector) Fetch(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error) {
	doc, err := c.fetcher.Fetch(ctx, src.URL, ForSource(src),
		WithAccept("application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8"))
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	body, err := readBody(doc)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > maxFeedEntries {
		entries = entries[:maxFeedEntries]
	}

	items := make([]models.RawItem, 0, len(entries))
	for _, entry := range entries {
		item := rawItem(src)
		item.Title = entry.Title
		item.Summary = entry.Description
		if item.Summary == "" {
			item.Summary = entry.Content
		}
		item.URL = entryLink(entry)
		item.Published = entryPublished(entry)
		item.Raw = map[string]any{
			"guid":       entry.GUID,
			"categories": entry.Categories,
		}
		items = append(items, item)
	}
	return items, nil
}

// entryLink prefers the explicit link and falls back to a URL-shaped GUID.
func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return entry.GUID
	}
	return ""
}

func entryPublished(entry *gofeed.Item) string {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.UTC().Format(time.RFC3339)
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.UTC().Format(time.RFC3339)
	case entry.Published != "":
		return entry.Published
	default:
		return entry.Updated
	}
}
