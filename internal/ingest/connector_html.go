package ingest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// htmlConnector scrapes listing pages with colly. Requests go through the
// shared Fetcher so rate limits and retries match every other connector.
type htmlConnector struct {
	fetcher Fetcher
	robots  *RobotsChecker
	logger  zerolog.Logger
}

func (c *htmlConnector) Fetch(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error) {
	if c.robots != nil {
		allowed, err := c.robots.IsAllowed(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			c.logger.Info().
				Str("source_id", src.ID).
				Str("url", src.URL).
				Msg("robots_disallow")
			return []models.RawItem{}, nil
		}
	}

	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodyBytes),
		colly.DetectCharset(),
	)
	collector.WithTransport(&fetcherTransport{
		fetcher: c.fetcher,
		opts:    []FetchOption{ForSource(src), WithAccept("text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")},
	})

	var items []models.RawItem
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		if src.Params.ItemSelector == "" || src.Params.LinkSelector == "" {
			items = []models.RawItem{pageItem(e, src)}
			return
		}
		items = listItems(e, src)
	})

	if err := collector.Visit(src.URL); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", src.URL, err)
	}
	if items == nil {
		items = []models.RawItem{}
	}
	return items, nil
}

// listItems extracts one item per container matched by itemSelector, using
// the first linkSelector match inside it.
func listItems(e *colly.HTMLElement, src config.SourceConfig) []models.RawItem {
	linkSel := src.Params.LinkSelector

	items := make([]models.RawItem, 0)
	e.DOM.Find(src.Params.ItemSelector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if len(items) >= maxFeedEntries {
			return false
		}

		link := node.Find(linkSel).First()
		if link.Length() == 0 && node.Is(linkSel) {
			link = node
		}
		href, _ := link.Attr("href")
		url := e.Request.AbsoluteURL(href)
		if href == "" || url == "" {
			return true
		}

		item := rawItem(src)
		item.Title = cleanText(link.Text())
		if item.Title == "" {
			item.Title, _ = link.Attr("title")
		}
		item.URL = url
		item.Summary = cleanText(node.Text())
		if dt, ok := node.Find("time").First().Attr("datetime"); ok {
			item.Published = dt
		}
		items = append(items, item)
		return true
	})
	return items
}

// pageItem treats the whole page as one announcement.
func pageItem(e *colly.HTMLElement, src config.SourceConfig) models.RawItem {
	item := rawItem(src)
	item.Title = cleanText(e.DOM.Find("title").First().Text())
	if item.Title == "" {
		item.Title = src.Name
	}
	item.Summary, _ = e.DOM.Find(`meta[name="description"]`).First().Attr("content")
	item.URL = src.URL
	return item
}

// fetcherTransport lets colly issue its requests through a Fetcher.
type fetcherTransport struct {
	fetcher Fetcher
	opts    []FetchOption
}

func (t *fetcherTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	doc, err := t.fetcher.Fetch(req.Context(), req.URL.String(), t.opts...)
	if err != nil {
		return nil, err
	}

	header := http.Header(doc.Headers)
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        http.StatusText(doc.StatusCode),
		StatusCode:    doc.StatusCode,
		Header:        header,
		Body:          doc.Body,
		ContentLength: -1,
		Request:       req,
	}, nil
}
