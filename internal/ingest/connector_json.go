package ingest

import (
	"context"
	"fmt"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/tidwall/gjson"
)

const maxJSONItems = 100

// jsonItemContainers are tried in order when itemsPath is unset or misses.
var jsonItemContainers = []string{"items", "results", "data"}

// jsonConnector maps arbitrary JSON APIs onto raw items using gjson paths.
type jsonConnector struct {
	fetcher Fetcher
}

func (c *jsonConnector) Fetch(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error) {
	doc, err := c.fetcher.Fetch(ctx, src.URL, ForSource(src), WithAccept("application/json"))
	if err != nil {
		return nil, fmt.Errorf("fetch json: %w", err)
	}
	body, err := readBody(doc)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse json: invalid document from %s", src.URL)
	}

	list := locateItems(gjson.ParseBytes(body), src.Params.ItemsPath)
	if len(list) > maxJSONItems {
		list = list[:maxJSONItems]
	}

	p := src.Params
	titleField := orDefault(p.TitleField, "title")
	urlField := orDefault(p.URLField, "url")
	summaryField := orDefault(p.SummaryField, "summary")
	publishedField := orDefault(p.PublishedField, "published")
	deadlineField := orDefault(p.DeadlineField, "deadline")

	items := make([]models.RawItem, 0, len(list))
	for _, entry := range list {
		if !entry.IsObject() {
			continue
		}
		item := rawItem(src)
		item.Title = FlattenText(entry.Get(titleField).Value())
		item.URL = FlattenText(entry.Get(urlField).Value())
		if item.URL == "" {
			item.URL = src.URL
		}
		item.Summary = FlattenText(entry.Get(summaryField).Value())
		item.Published = FlattenText(entry.Get(publishedField).Value())
		item.Deadline = FlattenText(entry.Get(deadlineField).Value())
		if raw, ok := entry.Value().(map[string]any); ok {
			item.Raw = raw
		}
		items = append(items, item)
	}
	return items, nil
}

// locateItems resolves the item list: the configured dotted path first, then
// the common container keys, then a top-level array.
func locateItems(root gjson.Result, itemsPath string) []gjson.Result {
	if itemsPath != "" {
		if r := root.Get(itemsPath); r.IsArray() {
			return r.Array()
		}
	}
	for _, key := range jsonItemContainers {
		if r := root.Get(key); r.IsArray() {
			return r.Array()
		}
	}
	if root.IsArray() {
		return root.Array()
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
