package pagewise

import (
	"time"

	"github.com/jmylchreest/pagewise/pkg/fetcher"
	"github.com/jmylchreest/pagewise/pkg/llm"
	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/prompt"
)

// Config holds Client configuration.
type Config struct {
	// Fetching. Resolver wins over Fetchers; with neither, the default
	// strategies from fetcher.DefaultConfig are used.
	Resolver     *fetcher.Resolver
	Fetchers     []fetcher.Fetcher
	Order        []string `validate:"dive,oneof=rendered driver remote static"`
	Timeout      time.Duration `validate:"gte=0"`
	FetchOptions fetcher.Options

	// Extraction
	ExtractOptions []page.Option

	// Answering
	Asker    llm.Asker
	Provider string // Name used in degraded answers; taken from Asker when empty
	Budget   prompt.Budget
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Budget:  prompt.DefaultBudget(),
	}
}

// Option configures a Client.
type Option func(*Config)

// WithResolver sets the fetch resolver.
func WithResolver(r *fetcher.Resolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

// WithFetchers builds the resolver from fetchers, tried in the given order.
func WithFetchers(fetchers ...fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetchers = fetchers
	}
}

// WithOrder tries the named strategies first.
func WithOrder(names ...string) Option {
	return func(c *Config) {
		c.Order = names
	}
}

// WithTimeout bounds each fetch strategy attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithFetchOptions sets the user agent and headers sent by every strategy.
func WithFetchOptions(opts fetcher.Options) Option {
	return func(c *Config) {
		c.FetchOptions = opts
	}
}

// WithExtractOptions adds page extraction options, such as an article
// cleaner or a paragraph length minimum.
func WithExtractOptions(opts ...page.Option) Option {
	return func(c *Config) {
		c.ExtractOptions = append(c.ExtractOptions, opts...)
	}
}

// WithAsker sets the model used to answer questions.
func WithAsker(a llm.Asker) Option {
	return func(c *Config) {
		c.Asker = a
	}
}

// WithProviderName overrides the provider name shown in degraded answers.
func WithProviderName(name string) Option {
	return func(c *Config) {
		c.Provider = name
	}
}

// WithBudget sets the prompt size budget.
func WithBudget(b prompt.Budget) Option {
	return func(c *Config) {
		c.Budget = b
	}
}
