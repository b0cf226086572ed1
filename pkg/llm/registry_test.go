package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantName  string
		wantModel string
	}{
		{name: "gemini", cfg: ProviderConfig{APIKey: "k"}, wantName: "gemini", wantModel: "gemini-1.5-flash"},
		{name: "Anthropic", cfg: ProviderConfig{APIKey: "k"}, wantName: "anthropic", wantModel: "claude-sonnet-4-20250514"},
		{name: "openai", cfg: ProviderConfig{APIKey: "k", Model: "gpt-4o"}, wantName: "openai", wantModel: "gpt-4o"},
		{name: "openrouter", cfg: ProviderConfig{APIKey: "k", AppTitle: "pagewise"}, wantName: "openrouter", wantModel: "openrouter/auto"},
		{name: " ollama ", wantName: "ollama", wantModel: "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewProvider(tt.name, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.wantModel, p.Model())
		})
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Parallel()

	for _, name := range []string{ProviderGemini, ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewProvider(name, ProviderConfig{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "API key required")
			assert.True(t, RequiresAPIKey(name))
		})
	}
	assert.False(t, RequiresAPIKey(ProviderOllama))
}

func TestNewProvider_Unknown(t *testing.T) {
	t.Parallel()

	_, err := NewProvider("helicone", ProviderConfig{})
	require.ErrorIs(t, err, ErrNoProvider)
	assert.Contains(t, err.Error(), "anthropic, gemini, ollama, openai, openrouter")
}

func TestAvailableProviders(t *testing.T) {
	t.Parallel()

	assert.Subset(t, AvailableProviders(), []string{"anthropic", "gemini", "ollama", "openai", "openrouter"})
	assert.True(t, IsRegistered("GEMINI"))
	assert.Equal(t, "gpt-4o-mini", GetDefaultModel("openai"))
	assert.Empty(t, GetDefaultModel("nope"))
}

func TestSplitSystem(t *testing.T) {
	t.Parallel()

	system, rest := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
	})

	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}}, rest)
}
