package llm

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNoProvider is returned for provider names that are not registered.
var ErrNoProvider = errors.New("unknown provider")

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// Built-in provider names.
const (
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = ProviderGemini

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	ProviderGemini:     "gemini-1.5-flash",
	ProviderAnthropic:  "claude-sonnet-4-20250514",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openrouter/auto",
	ProviderOllama:     "llama3.2",
}

// APIKeyEnv maps provider names to the environment variable conventionally
// holding their API key. Only the command layer reads it.
var APIKeyEnv = map[string]string{
	ProviderGemini:     "GEMINI_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func init() {
	RegisterProvider(ProviderGemini, func(cfg ProviderConfig) (Provider, error) {
		return NewGeminiProvider(cfg)
	})
	RegisterProvider(ProviderAnthropic, func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider(ProviderOpenAI, func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider(ProviderOpenRouter, func(cfg ProviderConfig) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	})
	RegisterProvider(ProviderOllama, func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// NewProvider creates a provider by name. Names are case-insensitive.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrNoProvider, name, strings.Join(AvailableProviders(), ", "))
	}
	return factory(cfg)
}

// RegisterProvider adds a custom provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	slices.Sort(providers)
	return providers
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[strings.ToLower(provider)]
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// RequiresAPIKey reports whether the named provider needs an API key.
func RequiresAPIKey(provider string) bool {
	_, ok := APIKeyEnv[strings.ToLower(provider)]
	return ok
}
