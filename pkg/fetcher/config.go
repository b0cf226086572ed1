package fetcher

import (
	"fmt"
	"strings"
)

// Config groups the configuration of every built-in strategy.
type Config struct {
	Static   StaticConfig
	Rendered RenderedConfig
	Driver   DriverConfig
	Remote   RemoteConfig
}

// DefaultConfig returns defaults for every strategy. Remote rendering stays
// unavailable until an endpoint and key are set.
func DefaultConfig() Config {
	return Config{
		Static:   DefaultStaticConfig(),
		Rendered: DefaultRenderedConfig(),
		Driver:   DefaultDriverConfig(),
		Remote:   DefaultRemoteConfig(),
	}
}

// NewFetcher builds the named built-in strategy.
func NewFetcher(name string, cfg Config) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyRendered:
		return NewRendered(cfg.Rendered), nil
	case StrategyDriver:
		return NewDriver(cfg.Driver), nil
	case StrategyRemote:
		return NewRemote(cfg.Remote), nil
	case StrategyStatic:
		return NewStatic(cfg.Static), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedStrategy, name, strings.Join(DefaultOrder, ", "))
	}
}

// New builds a Resolver over the named strategies, in order. With no names
// it uses DefaultOrder.
func New(cfg Config, names ...string) (*Resolver, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}
	fetchers := make([]Fetcher, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		f, err := NewFetcher(name, cfg)
		if err != nil {
			return nil, err
		}
		if seen[f.Type()] {
			continue
		}
		seen[f.Type()] = true
		fetchers = append(fetchers, f)
	}
	return NewResolver(fetchers...), nil
}
