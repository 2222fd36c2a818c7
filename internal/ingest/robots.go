package ingest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	defaultRobotsCacheTTL = 24 * time.Hour
	maxRobotsBodyBytes    = 512 * 1024
	robotsAgent           = "OpportunityRadar"
)

// RobotsChecker checks and caches robots.txt rules per host.
// Unreadable robots.txt (fetch error, non-2xx, parse error) allows everything.
type RobotsChecker struct {
	fetcher   Fetcher
	userAgent string
	cacheTTL  time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]robotsCacheEntry
}

type robotsCacheEntry struct {
	data      *robotstxt.RobotsData // nil means allow all
	fetchedAt time.Time
}

func NewRobotsChecker(fetcher Fetcher, userAgent string, cacheTTL time.Duration) *RobotsChecker {
	if cacheTTL == 0 {
		cacheTTL = defaultRobotsCacheTTL
	}
	if userAgent == "" {
		userAgent = robotsAgent
	}
	return &RobotsChecker{
		fetcher:   fetcher,
		userAgent: userAgent,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		cache:     make(map[string]robotsCacheEntry),
	}
}

// IsAllowed reports whether rawURL may be fetched under the host's robots.txt.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry, ok := r.cached(host)
	if !ok {
		entry = r.fetch(ctx, parsed.Scheme, host)
		r.mu.Lock()
		r.cache[host] = entry
		r.mu.Unlock()
	}
	if entry.data == nil {
		return true, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return entry.data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsChecker) cached(host string) (robotsCacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok || r.now().Sub(entry.fetchedAt) > r.cacheTTL {
		return robotsCacheEntry{}, false
	}
	return entry, true
}

func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) robotsCacheEntry {
	entry := robotsCacheEntry{fetchedAt: r.now()}
	if scheme == "" {
		scheme = "https"
	}

	doc, err := r.fetcher.Fetch(ctx, scheme+"://"+host+"/robots.txt", WithAccept("text/plain"))
	if err != nil {
		return entry
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(io.LimitReader(doc.Body, maxRobotsBodyBytes))
	if err != nil {
		return entry
	}
	data, err := robotstxt.FromStatusAndBytes(doc.StatusCode, body)
	if err != nil {
		return entry
	}
	entry.data = data
	return entry
}
