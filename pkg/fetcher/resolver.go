package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/pagewise/internal/logger"
)

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Content  Content
	Strategy string    // Strategy that produced Content
	Failures []Failure // Strategies that failed before it, in order
	Duration time.Duration
}

// Resolver tries fetch strategies in order and returns the first success.
// Unavailable strategies are skipped without being recorded. There are no
// retries: each strategy gets exactly one attempt.
type Resolver struct {
	fetchers []Fetcher
}

// NewResolver creates a resolver over fetchers in the given order.
func NewResolver(fetchers ...Fetcher) *Resolver {
	return &Resolver{fetchers: fetchers}
}

type resolveConfig struct {
	options Options
	order   []string
}

// ResolveOption customises a single Resolve call.
type ResolveOption func(*resolveConfig)

// WithTimeout bounds each strategy attempt.
func WithTimeout(d time.Duration) ResolveOption {
	return func(c *resolveConfig) {
		c.options.Timeout = d
	}
}

// WithOptions sets the fetch options passed to every strategy.
func WithOptions(opts Options) ResolveOption {
	return func(c *resolveConfig) {
		c.options = opts
	}
}

// WithOrder tries the named strategies first, in the given order. Strategies
// not named keep their relative order after them.
func WithOrder(names ...string) ResolveOption {
	return func(c *resolveConfig) {
		c.order = names
	}
}

// Strategies returns the configured strategy names in trial order.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.fetchers))
	for i, f := range r.fetchers {
		names[i] = f.Type()
	}
	return names
}

// Resolve fetches url with the first strategy that succeeds. When every
// available strategy fails it returns *AllStrategiesFailedError.
func (r *Resolver) Resolve(ctx context.Context, url string, opts ...ResolveOption) (*Resolution, error) {
	cfg := resolveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	var failures []Failure

	for _, f := range orderFetchers(r.fetchers, cfg.order) {
		if err := ctx.Err(); err != nil {
			break
		}
		if !f.Available() {
			logger.Debug("fetch strategy unavailable, skipping", "strategy", f.Type())
			continue
		}

		attemptStart := time.Now()
		content, err := attempt(ctx, f, url, cfg.options)
		if err == nil {
			logger.Info("page fetched",
				"url", url,
				"strategy", f.Type(),
				"duration", time.Since(attemptStart),
				"failed_before", len(failures))
			return &Resolution{
				Content:  content,
				Strategy: f.Type(),
				Failures: failures,
				Duration: time.Since(start),
			}, nil
		}

		logger.Warn("fetch strategy failed", "url", url, "strategy", f.Type(), "error", err)
		failures = append(failures, Failure{Strategy: f.Type(), Err: err})
	}

	return nil, &AllStrategiesFailedError{URL: url, Failures: failures}
}

// attempt runs one strategy. Any error becomes a *FetchError and a panic is
// recorded like any other failure.
func attempt(ctx context.Context, f Fetcher, url string, opts Options) (content Content, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &FetchError{Strategy: f.Type(), URL: url, Kind: KindNetwork, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	content, err = f.Fetch(ctx, url, opts)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = newFetchError(f.Type(), url, err)
		}
		return content, err
	}
	return content, nil
}

func orderFetchers(fetchers []Fetcher, order []string) []Fetcher {
	if len(order) == 0 {
		return fetchers
	}
	used := make([]bool, len(fetchers))
	ordered := make([]Fetcher, 0, len(fetchers))
	for _, name := range order {
		for i, f := range fetchers {
			if !used[i] && f.Type() == name {
				used[i] = true
				ordered = append(ordered, f)
			}
		}
	}
	for i, f := range fetchers {
		if !used[i] {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// Close closes every strategy.
func (r *Resolver) Close() error {
	var errs []error
	for _, f := range r.fetchers {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Type(), err))
		}
	}
	return errors.Join(errs...)
}
