package llm

import (
	"context"
	"time"

	"github.com/jmylchreest/pagewise/internal/logger"
)

// Observer receives a notification after every model call, whether it
// succeeded or failed. Implementations should not block.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one model call.
type CallEvent struct {
	Provider    string
	Model       string
	PromptChars int
	Response    *Response // nil when the backend returned an error
	Err         error
	Duration    time.Duration
	StartedAt   time.Time
}

// ObserverFunc is a convenience type for using a function as an Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnCall implements Observer.
func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver dispatches each event to all of its observers.
type MultiObserver []Observer

// OnCall implements Observer.
func (m MultiObserver) OnCall(ctx context.Context, event CallEvent) {
	for _, obs := range m {
		if obs != nil {
			obs.OnCall(ctx, event)
		}
	}
}

// LogObserver logs each call through the package logger.
type LogObserver struct{}

// OnCall implements Observer.
func (LogObserver) OnCall(ctx context.Context, e CallEvent) {
	if e.Err != nil {
		logger.WarnContext(ctx, "model call failed",
			"provider", e.Provider,
			"model", e.Model,
			"prompt_chars", e.PromptChars,
			"duration", e.Duration,
			"error", e.Err)
		return
	}
	args := []any{
		"provider", e.Provider,
		"model", e.Model,
		"prompt_chars", e.PromptChars,
		"duration", e.Duration,
	}
	if e.Response != nil {
		args = append(args,
			"input_tokens", e.Response.Usage.InputTokens,
			"output_tokens", e.Response.Usage.OutputTokens,
			"finish_reason", e.Response.FinishReason)
	}
	logger.InfoContext(ctx, "model call completed", args...)
}

var (
	_ Observer = ObserverFunc(nil)
	_ Observer = MultiObserver(nil)
	_ Observer = LogObserver{}
)
