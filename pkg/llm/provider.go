// Package llm is the model collaborator: a small Provider interface with
// Gemini, Anthropic, OpenAI, OpenRouter and Ollama backends, and an Asker
// that turns a prompt into an answer.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request to the model.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of a model call.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Model that served the call, as reported by the backend
	Duration     time.Duration
}

// Provider is the interface every model backend implements.
type Provider interface {
	// Execute sends a completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "gemini", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers. Credentials are
// always passed in explicitly; this package never reads the environment.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string // Custom endpoint, e.g. a local Ollama or an OpenAI-compatible proxy
	Model      string
	MaxRetries int
	Timeout    time.Duration
	// HTTPReferer and AppTitle are sent to OpenRouter for attribution.
	HTTPReferer string
	AppTitle    string
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 2,
		Timeout:    120 * time.Second,
	}
}

func maxTokensOr(n int) int {
	if n > 0 {
		return n
	}
	return DefaultMaxTokens
}

// splitSystem separates the system instruction, which several
// backends take separately from the conversation.
func splitSystem(msgs []Message) (system string, rest []Message) {
	rest = make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
