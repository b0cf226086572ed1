// Package fetcher retrieves the raw HTML of a single page.
//
// Several strategies are provided, from a full headless browser down to a
// plain HTTP GET. A Resolver tries them in order and returns the first
// success, recording why each earlier strategy failed. Implement the Fetcher
// interface to plug in additional strategies.
package fetcher

import (
	"context"
	"time"
)

// Strategy names, in the default trial order.
const (
	StrategyRendered = "rendered"
	StrategyDriver   = "driver"
	StrategyRemote   = "remote"
	StrategyStatic   = "static"
)

// DefaultOrder is the order in which a default Resolver tries strategies.
var DefaultOrder = []string{StrategyRendered, StrategyDriver, StrategyRemote, StrategyStatic}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL. Failures are returned as
	// *FetchError.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Available reports whether the strategy can run in this environment
	// (browser binary present, credentials configured, ...).
	Available() bool

	// Close releases any resources held between calls.
	Close() error

	// Type returns the strategy name (e.g. "static", "rendered").
	Type() string
}

// Options controls a single fetch.
type Options struct {
	UserAgent string
	Timeout   time.Duration // Upper bound for the whole fetch
	Headers   map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string // Only set by strategies that read it from a live page
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Browser-like defaults shared by all strategies.
const (
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultTimeout        = 30 * time.Second
)

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// durationOr returns the first positive duration.
func durationOr(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
