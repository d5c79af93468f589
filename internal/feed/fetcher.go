package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
)

// Fetcher downloads and parses one RSS/Atom feed. The HTTP transport carries
// a browser-ish User-Agent because several of the configured outlets reject
// anonymous clients.
type Fetcher struct {
	http   *resty.Client
	parser *gofeed.Parser
}

// NewFetcher builds a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second).
			SetHeader("User-Agent", "causality360/1.0 RSS Reader"),
		parser: gofeed.NewParser(),
	}
}

// Fetch retrieves the feed at url and parses it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %d", url, resp.StatusCode())
	}

	feed, err := f.parser.ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return feed, nil
}
