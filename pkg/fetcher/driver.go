package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/jmylchreest/pagewise/internal/logger"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DriverConfig holds configuration for the rod-driven browser fetcher.
type DriverConfig struct {
	BrowserPath string        // Empty lets rod's launcher look for a browser
	UserAgent   string
	Timeout     time.Duration // Whole fetch, including browser start
	WaitTimeout time.Duration // How long to poll for <body>
}

// DefaultDriverConfig returns sensible defaults.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		UserAgent:   defaultUserAgent,
		Timeout:     60 * time.Second,
		WaitTimeout: 10 * time.Second,
	}
}

// textSelector lists the elements whose visible text the driver collects.
const textSelector = "h1, h2, h3, h4, h5, h6, p, li, a"

// DriverFetcher automates a browser with rod and reads only what is visible
// on screen. The visible text is serialised back into a minimal HTML
// document so it can go through the same extraction as the other
// strategies.
type DriverFetcher struct {
	config DriverConfig
}

var _ Fetcher = (*DriverFetcher)(nil)

// NewDriver creates a new driver fetcher.
func NewDriver(cfg DriverConfig) *DriverFetcher {
	defaults := DefaultDriverConfig()
	cfg.UserAgent = coalesce(cfg.UserAgent, defaults.UserAgent)
	cfg.Timeout = durationOr(cfg.Timeout, defaults.Timeout)
	cfg.WaitTimeout = durationOr(cfg.WaitTimeout, defaults.WaitTimeout)
	return &DriverFetcher{config: cfg}
}

// Fetch launches a browser, waits for the body and collects visible text.
func (f *DriverFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{URL: targetURL, FetchedAt: time.Now()}

	ctx, cancel := context.WithTimeout(ctx, durationOr(opts.Timeout, f.config.Timeout))
	defer cancel()

	l := launcher.New().
		Context(ctx).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("user-agent", coalesce(opts.UserAgent, f.config.UserAgent)).
		NoSandbox(true).
		Leakless(true).
		Headless(true)
	if f.config.BrowserPath != "" {
		l = l.Bin(f.config.BrowserPath)
	}

	logger.Debug("driver fetch starting", "url", targetURL)

	// Cleanup waits for the browser process to exit, so it may only run
	// once Launch has started one.
	controlURL, err := l.Launch()
	if err != nil {
		removeUserDataDir(l)
		return result, launchError(StrategyDriver, targetURL, fmt.Errorf("launching browser: %w", err))
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return result, launchError(StrategyDriver, targetURL, fmt.Errorf("connecting to browser: %w", err))
	}
	defer func() {
		// Kill sleeps for a second; only use it when Close fails.
		if err := browser.Close(); err != nil {
			logger.Debug("driver browser close failed, killing", "error", err)
			l.Kill()
		}
		l.Cleanup()
	}()

	p, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return result, newFetchError(StrategyDriver, targetURL, fmt.Errorf("opening page: %w", err))
	}
	if len(opts.Headers) > 0 {
		pairs := make([]string, 0, len(opts.Headers)*2)
		for k, v := range opts.Headers {
			pairs = append(pairs, k, v)
		}
		if _, err := p.SetExtraHeaders(pairs); err != nil {
			logger.Debug("driver could not set headers", "error", err)
		}
	}

	// Element polls until the selector matches or the timeout expires.
	if _, err := p.Timeout(f.config.WaitTimeout).Element("body"); err != nil {
		return result, newFetchError(StrategyDriver, targetURL, fmt.Errorf("waiting for body: %w", err))
	}

	if info, err := p.Info(); err == nil {
		result.Title = info.Title
		result.URL = coalesce(info.URL, targetURL)
	}

	items, err := visibleItems(p)
	if err != nil {
		return result, newFetchError(StrategyDriver, targetURL, err)
	}

	doc, err := renderVisible(result.Title, items)
	if err != nil {
		return result, newFetchError(StrategyDriver, targetURL, fmt.Errorf("render document: %w", err))
	}
	result.HTML = doc
	result.StatusCode = 200

	logger.Debug("driver fetch complete", "url", targetURL, "elements", len(items))
	return result, nil
}

// visibleItem is one element's visible text as read from the live page.
type visibleItem struct {
	Tag  string
	Text string
	Href string
}

func visibleItems(p *rod.Page) ([]visibleItem, error) {
	els, err := p.Elements(textSelector)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}

	items := make([]visibleItem, 0, len(els))
	for _, el := range els {
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		text, err := el.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		tag, err := el.Eval(`() => this.tagName.toLowerCase()`)
		if err != nil {
			continue
		}
		item := visibleItem{Tag: tag.Value.Str(), Text: text}
		if item.Tag == "a" {
			if href, err := el.Attribute("href"); err == nil && href != nil {
				item.Href = *href
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// renderVisible builds a minimal HTML document holding title and items in
// order. Unknown tags are rendered as paragraphs.
func renderVisible(title string, items []visibleItem) (string, error) {
	htmlNode := element(atom.Html)
	head := element(atom.Head)
	body := element(atom.Body)
	htmlNode.AppendChild(head)
	htmlNode.AppendChild(body)

	if title != "" {
		t := element(atom.Title)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}

	for _, item := range items {
		a := atom.Lookup([]byte(item.Tag))
		switch a {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P, atom.Li, atom.A:
		default:
			a = atom.P
		}
		n := element(a)
		if a == atom.A && item.Href != "" {
			n.Attr = []html.Attribute{{Key: "href", Val: item.Href}}
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: item.Text})
		body.AppendChild(n)
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(htmlNode)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

// Available reports whether a browser binary can be found. A configured
// BrowserPath must exist and be executable.
func (f *DriverFetcher) Available() bool {
	if f.config.BrowserPath != "" {
		_, err := exec.LookPath(f.config.BrowserPath)
		return err == nil
	}
	_, ok := launcher.LookPath()
	return ok
}

// removeUserDataDir deletes the profile directory of a launcher whose
// browser never started.
func removeUserDataDir(l *launcher.Launcher) {
	if dir := l.Get(flags.UserDataDir); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			logger.Debug("driver could not remove user data dir", "dir", dir, "error", err)
		}
	}
}

// Close is a no-op; browsers do not outlive a fetch.
func (f *DriverFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *DriverFetcher) Type() string {
	return StrategyDriver
}
