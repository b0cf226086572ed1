package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// Asker answers a prompt with text.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// ModelCallError is returned by ProviderAsker for any failed call.
type ModelCallError struct {
	Provider string
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// AskerOption configures a ProviderAsker.
type AskerOption func(*ProviderAsker)

// WithSystemPrompt sets the system instruction sent with every prompt.
func WithSystemPrompt(s string) AskerOption {
	return func(a *ProviderAsker) { a.system = s }
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(n int) AskerOption {
	return func(a *ProviderAsker) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AskerOption {
	return func(a *ProviderAsker) { a.temperature = t }
}

// WithObserver reports every call to obs.
func WithObserver(obs Observer) AskerOption {
	return func(a *ProviderAsker) { a.observer = obs }
}

// ProviderAsker adapts a Provider to the Asker interface.
type ProviderAsker struct {
	provider    Provider
	system      string
	maxTokens   int
	temperature float64
	observer    Observer
}

// Default generation settings.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.4
)

// NewAsker wraps p.
func NewAsker(p Provider, opts ...AskerOption) *ProviderAsker {
	a := &ProviderAsker{
		provider:    p,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Provider returns the wrapped provider's name.
func (a *ProviderAsker) Provider() string {
	return a.provider.Name()
}

// Ask sends prompt as a single user message. Failures, including an empty
// answer, are returned as *ModelCallError.
func (a *ProviderAsker) Ask(ctx context.Context, prompt string) (string, error) {
	var messages []Message
	if a.system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: a.system})
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	start := time.Now()
	resp, err := a.provider.Execute(ctx, Request{
		Messages:    messages,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
		err = ErrEmptyResponse
	}

	if a.observer != nil {
		a.observer.OnCall(ctx, CallEvent{
			Provider:    a.provider.Name(),
			Model:       a.provider.Model(),
			PromptChars: utf8.RuneCountInString(prompt),
			Response:    resp,
			Err:         err,
			Duration:    time.Since(start),
			StartedAt:   start,
		})
	}

	if err != nil {
		return "", &ModelCallError{Provider: a.provider.Name(), Err: err}
	}
	return strings.TrimSpace(resp.Content), nil
}

var _ Asker = (*ProviderAsker)(nil)
