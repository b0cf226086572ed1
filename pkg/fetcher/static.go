package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/jmylchreest/pagewise/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int // Bytes; 0 keeps colly's default
	Headers     map[string]string
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent: defaultUserAgent,
		Timeout:   defaultTimeout,
	}
}

// StaticFetcher performs a single plain HTTP GET through Colly, without
// executing scripts. It is always available and is the last resort of the
// default order.
type StaticFetcher struct {
	config StaticConfig
}

var _ Fetcher = (*StaticFetcher)(nil)

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	defaults := DefaultStaticConfig()
	cfg.UserAgent = coalesce(cfg.UserAgent, defaults.UserAgent)
	cfg.Timeout = durationOr(cfg.Timeout, defaults.Timeout)
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves page content using Colly. Any non-2xx response is a
// KindHTTPStatus failure.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	timeout := durationOr(opts.Timeout, f.config.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	collectorOpts := []colly.CollectorOption{
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	}
	if f.config.MaxBodySize > 0 {
		collectorOpts = append(collectorOpts, colly.MaxBodySize(f.config.MaxBodySize))
	}

	// A new collector per request keeps fetches isolated.
	c := colly.NewCollector(collectorOpts...)
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(timeout)
	logger.Debug("static fetch starting", "url", targetURL, "user_agent", userAgent, "timeout", timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", defaultAccept)
		r.Headers.Set("Accept-Language", defaultAcceptLanguage)
		for k, v := range f.config.Headers {
			r.Headers.Set(k, v)
		}
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		if r.Request != nil && r.Request.URL != nil {
			result.URL = r.Request.URL.String()
		}
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			logger.Size("body_size", len(r.Body)))
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", err)
		return result, newFetchError(StrategyStatic, targetURL, fmt.Errorf("visit: %w", err))
	}
	if fetchErr != nil {
		return result, newFetchError(StrategyStatic, targetURL, fetchErr)
	}

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, statusError(StrategyStatic, targetURL, result.StatusCode)
	}

	logger.Debug("static fetch complete", "url", targetURL, "status", result.StatusCode)
	return result, nil
}

// Available always returns true.
func (f *StaticFetcher) Available() bool {
	return true
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return StrategyStatic
}
