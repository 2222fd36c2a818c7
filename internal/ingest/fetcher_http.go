package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; OpportunityRadar/1.0; +https://github.com/NiranjanGhising/AI-Data-Science-News-bot)"

// FetchConfig defines HTTP fetching behaviour.
type FetchConfig struct {
	TimeoutSeconds    int
	MaxRetries        int           // retries after the first attempt, default 2
	BaseBackoff       time.Duration // default 500ms, doubled per retry
	UserAgent         string
	AcceptLanguage    string
	AllowPrivateHosts bool // disables the private address guard, for tests and local feeds
}

// RateLimitedFetcher is the polite HTTP client shared by every connector.
// It waits on a per-source limiter, retries transient failures with
// exponential backoff and refuses to dial private addresses.
type RateLimitedFetcher struct {
	client   *http.Client
	config   FetchConfig
	logger   zerolog.Logger
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func NewRateLimitedFetcher(cfg FetchConfig, logger zerolog.Logger) *RateLimitedFetcher {
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-US,en;q=0.5"
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           publicOnly(dialer),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.AllowPrivateHosts {
		transport.DialContext = dialer.DialContext
	}

	return &RateLimitedFetcher{
		client: &http.Client{
			Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport:     transport,
			CheckRedirect: redirectPolicy(!cfg.AllowPrivateHosts),
		},
		config:   cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the limiter for key, creating it with the given interval on first use.
// A zero interval means no limit for that key.
func (f *RateLimitedFetcher) limiter(key string, interval time.Duration) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.limiters[key]; ok {
		if interval > 0 && l.Limit() != rate.Every(interval) {
			l.SetLimit(rate.Every(interval))
		}
		return l
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	l := rate.NewLimiter(limit, 1)
	f.limiters[key] = l
	return l
}

// Fetch implements the Fetcher interface with rate limiting and retries.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string, opts ...FetchOption) (*FetchedDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	o := buildFetchOptions(opts)
	key := o.SourceID
	if key == "" {
		key = strings.ToLower(u.Host)
	}
	if err := f.limiter(key, o.MinInterval).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	accept := o.Accept
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8"
	}

	var lastErr error
	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// 0.5s, 1s, 2s + jitter
			backoff := f.config.BaseBackoff * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int63n(int64(f.config.BaseBackoff/5) + 1))
			f.logger.Debug().
				Str("url", rawURL).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("fetch_retry")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", f.config.UserAgent)
		req.Header.Set("Accept", accept)
		req.Header.Set("Accept-Language", f.config.AcceptLanguage)
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) {
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &FetchedDocument{
				URL:         rawURL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now().UTC(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		if shouldRetry(nil, resp.StatusCode) {
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		}
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// shouldRetry determines if an error or status code should trigger a retry
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}

	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
