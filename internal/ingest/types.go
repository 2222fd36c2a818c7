package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

var (
	ErrUnknownParser    = errors.New("unknown parser kind")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
)

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...FetchOption) (*FetchedDocument, error)
}

// FetchOptions tune a single fetch.
type FetchOptions struct {
	// SourceID keys the politeness limiter. Empty means the URL host.
	SourceID string
	// MinInterval is the minimum gap between requests sharing a key.
	MinInterval time.Duration
	Accept      string
}

type FetchOption func(*FetchOptions)

// ForSource rate-limits the request under the source's id.
func ForSource(src config.SourceConfig) FetchOption {
	return func(o *FetchOptions) {
		o.SourceID = src.ID
		o.MinInterval = time.Duration(src.RateLimitSeconds * float64(time.Second))
	}
}

func WithAccept(accept string) FetchOption {
	return func(o *FetchOptions) {
		o.Accept = accept
	}
}

func buildFetchOptions(opts []FetchOption) FetchOptions {
	var o FetchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Connector turns one configured source into raw items.
type Connector interface {
	Fetch(ctx context.Context, src config.SourceConfig) ([]models.RawItem, error)
}

// rawItem fills the provenance fields every connector copies from its source.
func rawItem(src config.SourceConfig) models.RawItem {
	tags := make([]string, len(src.Tags))
	copy(tags, src.Tags)
	return models.RawItem{
		Source:   src.Name,
		SourceID: src.ID,
		Tags:     tags,
	}
}
