package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jmylchreest/pagewise/internal/logger"
	"github.com/jmylchreest/pagewise/internal/version"
	"github.com/jmylchreest/pagewise/pkg/cleaner"
	"github.com/jmylchreest/pagewise/pkg/fetcher"
	"github.com/jmylchreest/pagewise/pkg/llm"
	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/pagewise"
	"github.com/jmylchreest/pagewise/pkg/prompt"
)

// detectOrder is the order in which provider API key env vars are checked.
var detectOrder = []string{llm.ProviderGemini, llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderOpenRouter}

func setDefaults() {
	remote := fetcher.DefaultRemoteConfig()
	rendered := fetcher.DefaultRenderedConfig()
	driver := fetcher.DefaultDriverConfig()

	viper.SetDefault("render.key_param", remote.KeyParam)
	viper.SetDefault("render.url_param", remote.URLParam)
	viper.SetDefault("render.render_param", remote.RenderParam)
	viper.SetDefault("browser.load_timeout", rendered.LoadTimeout)
	viper.SetDefault("browser.settle_delay", rendered.SettleDelay)
	viper.SetDefault("browser.wait_timeout", driver.WaitTimeout)
	viper.SetDefault("browser.scroll", rendered.Scroll)
	viper.SetDefault("max_body_size", "10MB")
	viper.SetDefault("max_tokens", llm.DefaultMaxTokens)
	viper.SetDefault("temperature", llm.DefaultTemperature)
}

// fetcherConfig builds the strategy configuration from viper.
func fetcherConfig() (fetcher.Config, error) {
	cfg := fetcher.DefaultConfig()

	if ua := viper.GetString("user_agent"); ua != "" {
		cfg.Static.UserAgent = ua
		cfg.Rendered.UserAgent = ua
		cfg.Driver.UserAgent = ua
	}

	cfg.Rendered.ChromePath = viper.GetString("browser.path")
	cfg.Rendered.LoadTimeout = viper.GetDuration("browser.load_timeout")
	cfg.Rendered.SettleDelay = viper.GetDuration("browser.settle_delay")
	cfg.Rendered.Scroll = viper.GetBool("browser.scroll")
	cfg.Rendered.Headful = viper.GetBool("browser.headful")
	cfg.Driver.BrowserPath = viper.GetString("browser.path")
	cfg.Driver.WaitTimeout = viper.GetDuration("browser.wait_timeout")

	cfg.Remote.Endpoint = viper.GetString("render.endpoint")
	cfg.Remote.APIKey = viper.GetString("render.api_key")
	cfg.Remote.KeyParam = viper.GetString("render.key_param")
	cfg.Remote.URLParam = viper.GetString("render.url_param")
	cfg.Remote.RenderParam = viper.GetString("render.render_param")

	if s := viper.GetString("max_body_size"); s != "" && s != "0" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid max_body_size %q: %w", s, err)
		}
		cfg.Static.MaxBodySize = int(n)
		cfg.Remote.MaxBodySize = int64(n)
	}

	return cfg, nil
}

// newClient builds a pagewise client from viper. The model is only set up
// when withModel is true, so fetch works without credentials.
func newClient(withModel bool, extra ...pagewise.Option) (*pagewise.Client, error) {
	fcfg, err := fetcherConfig()
	if err != nil {
		return nil, err
	}
	resolver, err := fetcher.New(fcfg, viper.GetStringSlice("strategies")...)
	if err != nil {
		return nil, err
	}

	opts := []pagewise.Option{
		pagewise.WithResolver(resolver),
		pagewise.WithTimeout(viper.GetDuration("timeout")),
		pagewise.WithBudget(prompt.Budget{
			MaxItems: viper.GetInt("max_items"),
			MaxChars: viper.GetInt("max_chars"),
			MaxLinks: viper.GetInt("max_links"),
		}),
	}

	cl, err := cleaner.New(viper.GetString("article"))
	if err != nil {
		return nil, err
	}
	if cl != nil {
		opts = append(opts, pagewise.WithExtractOptions(page.WithArticleCleaner(cl)))
	}

	if withModel {
		asker, err := newAsker()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pagewise.WithAsker(asker))
	}

	client, err := pagewise.New(append(opts, extra...)...)
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}
	logger.Debug("client ready", "strategies", client.Strategies())
	return client, nil
}

// newAsker builds the model from viper. API keys come from --api-key, the
// config file, PAGEWISE_API_KEY or the provider's own env var.
func newAsker() (*llm.ProviderAsker, error) {
	provider := viper.GetString("provider")
	if provider == "" {
		provider = detectProvider(os.Getenv)
	}
	if !llm.IsRegistered(provider) {
		return nil, fmt.Errorf("%w: %q", llm.ErrNoProvider, provider)
	}

	apiKey := viper.GetString("api_key")
	if apiKey == "" {
		if env, ok := llm.APIKeyEnv[provider]; ok {
			apiKey = os.Getenv(env)
		}
	}
	if apiKey == "" && llm.RequiresAPIKey(provider) {
		return nil, missingKeyError(provider)
	}

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = viper.GetString("model")
	cfg.BaseURL = viper.GetString("base_url")
	cfg.AppTitle = version.AppName()

	p, err := llm.NewProvider(provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", provider, err)
	}
	logger.Debug("model ready", "provider", p.Name(), "model", p.Model())

	return llm.NewAsker(p,
		llm.WithSystemPrompt(prompt.SystemPrompt),
		llm.WithMaxTokens(viper.GetInt("max_tokens")),
		llm.WithTemperature(viper.GetFloat64("temperature")),
		llm.WithObserver(llm.LogObserver{}),
	), nil
}

// detectProvider returns the first provider whose API key env var is set,
// falling back to Gemini.
func detectProvider(getenv func(string) string) string {
	for _, name := range detectOrder {
		if getenv(llm.APIKeyEnv[name]) != "" {
			return name
		}
	}
	return llm.DefaultProvider
}

func missingKeyError(provider string) error {
	msg := fmt.Sprintf("%s API key not set: use --api-key or set %s", provider, llm.APIKeyEnv[provider])
	if provider == llm.ProviderGemini {
		msg += " (get a key at https://aistudio.google.com/apikey)"
	}
	return errors.New(msg)
}
