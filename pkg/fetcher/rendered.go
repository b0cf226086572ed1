package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jmylchreest/pagewise/internal/logger"
)

// RenderedConfig holds configuration for the headless Chrome fetcher.
type RenderedConfig struct {
	ChromePath  string        // Empty searches well-known locations
	UserAgent   string
	Timeout     time.Duration // Whole fetch, including browser start
	LoadTimeout time.Duration // Wait for load/network idle after DOMContentLoaded
	SettleDelay time.Duration // Extra wait after scrolling
	Scroll      bool          // Scroll to the bottom to trigger lazy content
	Headful     bool          // Show the browser window
}

// DefaultRenderedConfig returns sensible defaults.
func DefaultRenderedConfig() RenderedConfig {
	return RenderedConfig{
		UserAgent:   defaultUserAgent,
		Timeout:     60 * time.Second,
		LoadTimeout: 10 * time.Second,
		SettleDelay: 2 * time.Second,
		Scroll:      true,
	}
}

// RenderedFetcher drives a headless Chrome through chromedp and returns the
// DOM after scripts have run. Each fetch launches its own browser, which is
// torn down before Fetch returns.
type RenderedFetcher struct {
	config RenderedConfig

	pathOnce sync.Once
	path     string
}

var _ Fetcher = (*RenderedFetcher)(nil)

// NewRendered creates a new rendered fetcher.
func NewRendered(cfg RenderedConfig) *RenderedFetcher {
	defaults := DefaultRenderedConfig()
	cfg.UserAgent = coalesce(cfg.UserAgent, defaults.UserAgent)
	cfg.Timeout = durationOr(cfg.Timeout, defaults.Timeout)
	cfg.LoadTimeout = durationOr(cfg.LoadTimeout, defaults.LoadTimeout)
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &RenderedFetcher{config: cfg}
}

func (f *RenderedFetcher) chromePath() string {
	f.pathOnce.Do(func() {
		f.path = coalesce(f.config.ChromePath, FindChromePath())
	})
	return f.path
}

// Fetch navigates to targetURL and returns the rendered HTML.
func (f *RenderedFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{URL: targetURL, FetchedAt: time.Now()}

	ctx, cancel := context.WithTimeout(ctx, durationOr(opts.Timeout, f.config.Timeout))
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !f.config.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(coalesce(opts.UserAgent, f.config.UserAgent)),
	)
	if path := f.chromePath(); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	logger.Debug("rendered fetch starting", "url", targetURL)

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		return result, launchError(StrategyRendered, targetURL, err)
	}

	domReady := make(chan struct{})
	loaded := make(chan struct{})
	var domOnce, loadOnce sync.Once
	chromedp.ListenTarget(browserCtx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventDomContentEventFired:
			domOnce.Do(func() { close(domReady) })
		case *page.EventLoadEventFired:
			loadOnce.Do(func() { close(loaded) })
		case *page.EventLifecycleEvent:
			if e.Name == "networkIdle" {
				loadOnce.Do(func() { close(loaded) })
			}
		}
	})

	if len(opts.Headers) > 0 {
		if err := chromedp.Run(browserCtx, setExtraHeaders(opts.Headers)); err != nil {
			return result, newFetchError(StrategyRendered, targetURL, err)
		}
	}

	// chromedp.Navigate blocks until the load event, so it runs on its own
	// context and the events above decide when to move on.
	navCtx, cancelNav := context.WithCancel(browserCtx)
	defer cancelNav()
	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(navCtx, chromedp.Navigate(targetURL))
	}()

	if err := f.waitForPage(ctx, domReady, loaded, navDone); err != nil {
		return result, newFetchError(StrategyRendered, targetURL, err)
	}
	cancelNav()

	var actions []chromedp.Action
	if f.config.Scroll {
		actions = append(actions, chromedp.Evaluate(`window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`, nil))
	}
	if f.config.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(f.config.SettleDelay))
	}
	actions = append(actions,
		chromedp.Title(&result.Title),
		chromedp.Evaluate(`document.documentElement.outerHTML`, &result.HTML),
	)
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return result, newFetchError(StrategyRendered, targetURL, fmt.Errorf("read document: %w", err))
	}

	result.StatusCode = 200
	logger.Debug("rendered fetch complete", "url", targetURL, "title", result.Title, logger.Size("html_size", len(result.HTML)))
	return result, nil
}

// waitForPage waits for DOMContentLoaded, then up to LoadTimeout for the load
// event or network idle. A page that never finishes loading is read anyway.
func (f *RenderedFetcher) waitForPage(ctx context.Context, domReady, loaded <-chan struct{}, navDone <-chan error) error {
	select {
	case <-domReady:
	case err := <-navDone:
		// Navigate only returns early on failure or after the load event.
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(f.config.LoadTimeout)
	defer timer.Stop()

	select {
	case <-loaded:
	case err := <-navDone:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-timer.C:
		logger.Debug("page kept loading, continuing anyway", "load_timeout", f.config.LoadTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func setExtraHeaders(headers map[string]string) chromedp.Tasks {
	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(h),
	}
}

// Available reports whether a Chrome binary was found.
func (f *RenderedFetcher) Available() bool {
	return f.chromePath() != ""
}

// Close is a no-op; browsers do not outlive a fetch.
func (f *RenderedFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *RenderedFetcher) Type() string {
	return StrategyRendered
}
