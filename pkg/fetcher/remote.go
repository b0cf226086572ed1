package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jmylchreest/pagewise/internal/logger"
)

// RemoteConfig configures a third-party rendering service that is called as
// GET <Endpoint>?<KeyParam>=<APIKey>&<URLParam>=<target>&<RenderParam>=true.
type RemoteConfig struct {
	Endpoint    string
	APIKey      string
	KeyParam    string
	URLParam    string
	RenderParam string
	Timeout     time.Duration
	MaxBodySize int64
	HTTPClient  *http.Client
}

// DefaultRemoteConfig returns the parameter names used by ScraperAPI-style
// services. Endpoint and APIKey must still be provided.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		KeyParam:    "api_key",
		URLParam:    "url",
		RenderParam: "render",
		Timeout:     60 * time.Second,
		MaxBodySize: 10 << 20,
	}
}

// RemoteFetcher delegates rendering to a remote service.
type RemoteFetcher struct {
	config RemoteConfig
	client *http.Client
}

var _ Fetcher = (*RemoteFetcher)(nil)

// NewRemote creates a new remote rendering fetcher.
func NewRemote(cfg RemoteConfig) *RemoteFetcher {
	defaults := DefaultRemoteConfig()
	cfg.KeyParam = coalesce(cfg.KeyParam, defaults.KeyParam)
	cfg.URLParam = coalesce(cfg.URLParam, defaults.URLParam)
	cfg.RenderParam = coalesce(cfg.RenderParam, defaults.RenderParam)
	cfg.Timeout = durationOr(cfg.Timeout, defaults.Timeout)
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaults.MaxBodySize
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &RemoteFetcher{config: cfg, client: client}
}

// Fetch asks the remote service to render targetURL and returns its body.
func (f *RemoteFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{URL: targetURL, FetchedAt: time.Now()}
	if !f.Available() {
		return result, &FetchError{
			Strategy: StrategyRemote,
			URL:      targetURL,
			Kind:     KindNetwork,
			Err:      fmt.Errorf("remote rendering not configured"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, durationOr(opts.Timeout, f.config.Timeout))
	defer cancel()

	reqURL, err := f.requestURL(targetURL)
	if err != nil {
		return result, newFetchError(StrategyRemote, targetURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return result, newFetchError(StrategyRemote, targetURL, fmt.Errorf("create request: %w", err))
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// The key is part of the query string, so only the endpoint is logged.
	logger.Debug("remote fetch starting", "url", targetURL, "endpoint", f.config.Endpoint)

	resp, err := f.client.Do(req)
	if err != nil {
		return result, newFetchError(StrategyRemote, targetURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return result, statusError(StrategyRemote, targetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize))
	if err != nil {
		return result, newFetchError(StrategyRemote, targetURL, fmt.Errorf("read body: %w", err))
	}
	result.HTML = string(body)

	logger.Debug("remote fetch complete", "url", targetURL, "status", resp.StatusCode, logger.Size("body_size", len(body)))
	return result, nil
}

func (f *RemoteFetcher) requestURL(targetURL string) (string, error) {
	u, err := url.Parse(f.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid remote endpoint: %w", err)
	}
	q := u.Query()
	q.Set(f.config.KeyParam, f.config.APIKey)
	q.Set(f.config.URLParam, targetURL)
	q.Set(f.config.RenderParam, "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Available reports whether an endpoint and key are configured.
func (f *RemoteFetcher) Available() bool {
	return f.config.Endpoint != "" && f.config.APIKey != ""
}

// Close releases idle connections.
func (f *RemoteFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type.
func (f *RemoteFetcher) Type() string {
	return StrategyRemote
}
