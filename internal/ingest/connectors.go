package ingest

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 10 * 1024 * 1024

// ConnectorFactory maps parser kinds to connectors.
type ConnectorFactory struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewConnectorFactory registers the built-in rss, atom, json, ics and html connectors.
func NewConnectorFactory(fetcher Fetcher, robots *RobotsChecker, logger zerolog.Logger) *ConnectorFactory {
	f := &ConnectorFactory{connectors: make(map[string]Connector)}

	rss := &rssConnector{fetcher: fetcher}
	f.Register("rss", rss)
	f.Register("atom", rss)
	f.Register("json", &jsonConnector{fetcher: fetcher})
	f.Register("ics", &icsConnector{fetcher: fetcher})
	f.Register("html", &htmlConnector{
		fetcher: fetcher,
		robots:  robots,
		logger:  logger.With().Str("connector", "html").Logger(),
	})

	return f
}

func (f *ConnectorFactory) Register(kind string, c Connector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectors[strings.ToLower(kind)] = c
}

// Get returns the connector for kind, or ErrUnknownParser.
func (f *ConnectorFactory) Get(kind string) (Connector, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c, ok := f.connectors[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, kind)
	}
	return c, nil
}

// Kinds lists registered parser kinds in sorted order.
func (f *ConnectorFactory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.connectors))
	for k := range f.connectors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// readBody drains and closes a fetched document.
func readBody(doc *FetchedDocument) ([]byte, error) {
	defer doc.Body.Close()
	body, err := io.ReadAll(io.LimitReader(doc.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", doc.URL, err)
	}
	return body, nil
}
