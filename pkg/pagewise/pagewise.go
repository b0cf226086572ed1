// Package pagewise answers questions about a single web page. A request is
// fetched with the first working strategy, reduced to a page.Record, bounded
// into a prompt and sent to a language model.
package pagewise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/pagewise/internal/logger"
	"github.com/jmylchreest/pagewise/pkg/fetcher"
	"github.com/jmylchreest/pagewise/pkg/llm"
	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/prompt"
)

var (
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoAsker is reported when a question is asked of a client built
	// without a model.
	ErrNoAsker = errors.New("no language model configured")
)

// FetchRequest identifies a page to fetch.
type FetchRequest struct {
	URL   string `json:"url" validate:"required"`
	Topic string `json:"topic,omitempty"`
}

// Request is a question about a page. MaxItems and MaxChars override the
// client budget when positive.
type Request struct {
	URL      string `json:"url" validate:"required"`
	Question string `json:"question" validate:"required"`
	Topic    string `json:"topic,omitempty"`
	MaxItems int    `json:"max_items,omitempty" validate:"gte=0"`
	MaxChars int    `json:"max_chars,omitempty" validate:"gte=0"`
}

// Page is a fetched and extracted page.
type Page struct {
	Record        page.Record
	Strategy      string            // Fetch strategy that produced the page
	Failures      []fetcher.Failure // Strategies that failed first, in order
	FetchDuration time.Duration
}

// Answer is the model's reply to a question. A failed model call does not
// fail the request: Text then describes the failure and Err holds it.
type Answer struct {
	Question string
	Text     string
	Provider string
	Err      error
	Duration time.Duration
	Page     *Page // Set by Ask; nil from AskPage
}

// Client runs requests. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	resolver *fetcher.Resolver
	asker    llm.Asker
	provider string
	budget   prompt.Budget
	extract  []page.Option
	fetch    []fetcher.ResolveOption
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	resolver := cfg.Resolver
	switch {
	case resolver != nil:
	case len(cfg.Fetchers) > 0:
		resolver = fetcher.NewResolver(cfg.Fetchers...)
	default:
		var err error
		resolver, err = fetcher.New(fetcher.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create fetchers: %w", err)
		}
	}

	provider := cfg.Provider
	if provider == "" {
		if named, ok := cfg.Asker.(interface{ Provider() string }); ok {
			provider = named.Provider()
		} else {
			provider = "the language model"
		}
	}

	fetchOpts := cfg.FetchOptions
	if fetchOpts.Timeout == 0 {
		fetchOpts.Timeout = cfg.Timeout
	}
	resolveOpts := []fetcher.ResolveOption{fetcher.WithOptions(fetchOpts)}
	if len(cfg.Order) > 0 {
		resolveOpts = append(resolveOpts, fetcher.WithOrder(cfg.Order...))
	}

	return &Client{
		resolver: resolver,
		asker:    cfg.Asker,
		provider: provider,
		budget:   cfg.Budget,
		extract:  cfg.ExtractOptions,
		fetch:    resolveOpts,
	}, nil
}

// Strategies returns the fetch strategies in trial order.
func (c *Client) Strategies() []string {
	return c.resolver.Strategies()
}

// Fetch retrieves and extracts a page. It fails with ErrInvalidRequest or
// page.ErrInvalidURL for bad input, and with *fetcher.AllStrategiesFailedError
// when no strategy could fetch the page.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*Page, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	url, err := page.NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	res, err := c.resolver.Resolve(ctx, url, c.fetch...)
	if err != nil {
		return nil, err
	}

	base := res.Content.URL
	if base == "" {
		base = url
	}
	opts := append(c.extract[:len(c.extract):len(c.extract)], page.WithTopic(req.Topic))
	rec := page.Extract(res.Content.HTML, base, opts...)
	rec.URL = url

	return &Page{
		Record:        rec,
		Strategy:      res.Strategy,
		Failures:      res.Failures,
		FetchDuration: res.Duration,
	}, nil
}

// Ask fetches the page and answers the question about it. Only invalid
// input and fetch exhaustion are returned as errors; model failures are
// reported in the Answer.
func (c *Client) Ask(ctx context.Context, req Request) (*Answer, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	p, err := c.Fetch(ctx, FetchRequest{URL: req.URL, Topic: req.Topic})
	if err != nil {
		return nil, err
	}

	budget := c.budget
	if req.MaxItems > 0 {
		budget.MaxItems = req.MaxItems
	}
	if req.MaxChars > 0 {
		budget.MaxChars = req.MaxChars
	}

	ans := c.ask(ctx, p.Record, req.Question, budget)
	ans.Page = p
	return ans, nil
}

// AskPage answers a question about an already extracted record, so the same
// page can be questioned repeatedly without fetching it again.
func (c *Client) AskPage(ctx context.Context, rec page.Record, question string) *Answer {
	return c.ask(ctx, rec, question, c.budget)
}

func (c *Client) ask(ctx context.Context, rec page.Record, question string, b prompt.Budget) *Answer {
	start := time.Now()
	ans := &Answer{Question: question, Provider: c.provider}

	var err error
	if c.asker == nil {
		err = ErrNoAsker
	} else {
		ans.Text, err = c.asker.Ask(ctx, prompt.Build(rec, question, b))
	}
	ans.Duration = time.Since(start)

	if err != nil {
		ans.Err = err
		ans.Text = fmt.Sprintf("Error contacting %s: %v", c.provider, reason(err))
		logger.Warn("question not answered", "url", rec.URL, "provider", c.provider, "error", err)
	}
	return ans
}

// reason strips the provider prefix a *llm.ModelCallError adds.
func reason(err error) error {
	var mce *llm.ModelCallError
	if errors.As(err, &mce) {
		return mce.Err
	}
	return err
}

// Close releases the fetchers.
func (c *Client) Close() error {
	return c.resolver.Close()
}
