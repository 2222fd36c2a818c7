package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	ics "github.com/arran4/golang-ical"
)

// icsConnector turns calendar VEVENTs into raw items.
// Event start is the published date and event end the deadline. The item URL
// is the event URL, else its LOCATION, else the calendar URL.
type icsConnector struct {
	fetcher Fetcher
}

func (c *icsConnector) Fetch(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error) {
	doc, err := c.fetcher.Fetch(ctx, src.URL, ForSource(src), WithAccept("text/calendar,*/*;q=0.8"))
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	body, err := readBody(doc)
	if err != nil {
		return nil, err
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := cal.Events()
	items := make([]models.RawItem, 0, len(events))
	for _, event := range events {
		item := rawItem(src)
		item.Title = propertyValue(event, ics.ComponentPropertySummary)
		item.Summary = propertyValue(event, ics.ComponentPropertyDescription)
		item.URL = firstNonEmpty(
			propertyValue(event, ics.ComponentPropertyUrl),
			propertyValue(event, ics.ComponentPropertyLocation),
			src.URL,
		)
		if start, err := event.GetStartAt(); err == nil {
			item.Published = start.UTC().Format(time.RFC3339)
		}
		if end, err := event.GetEndAt(); err == nil {
			item.Deadline = end.UTC().Format(time.RFC3339)
		}
		item.Raw = map[string]any{"uid": event.Id()}
		items = append(items, item)
	}
	return items, nil
}

func propertyValue(event *ics.VEvent, prop ics.ComponentProperty) string {
	if p := event.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = cleanText(v); v != "" {
			return v
		}
	}
	return ""
}
