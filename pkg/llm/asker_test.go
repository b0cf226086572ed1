package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	resp *Response
	err  error
	got  Request
}

func (f *fakeProvider) Execute(_ context.Context, req Request) (*Response, error) {
	f.got = req
	return f.resp, f.err
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func TestProviderAsker_Ask(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{resp: &Response{Content: "  The page lists books.\n"}}
	a := NewAsker(p, WithSystemPrompt("be brief"), WithMaxTokens(200), WithTemperature(0.1))

	answer, err := a.Ask(context.Background(), "what is here?")

	require.NoError(t, err)
	assert.Equal(t, "The page lists books.", answer)
	assert.Equal(t, "fake", a.Provider())
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "what is here?"},
	}, p.got.Messages)
	assert.Equal(t, 200, p.got.MaxTokens)
	assert.InDelta(t, 0.1, p.got.Temperature, 1e-9)
}

func TestProviderAsker_Defaults(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{resp: &Response{Content: "ok"}}
	_, err := NewAsker(p, WithMaxTokens(0)).Ask(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}}, p.got.Messages)
	assert.Equal(t, DefaultMaxTokens, p.got.MaxTokens)
	assert.InDelta(t, DefaultTemperature, p.got.Temperature, 1e-9)
}

func TestProviderAsker_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	tests := []struct {
		name    string
		resp    *Response
		err     error
		wantErr error
	}{
		{name: "provider error", err: boom, wantErr: boom},
		{name: "empty content", resp: &Response{Content: " \n "}, wantErr: ErrEmptyResponse},
		{name: "nil response", wantErr: ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := NewAsker(&fakeProvider{resp: tt.resp, err: tt.err})

			answer, err := a.Ask(context.Background(), "q")

			assert.Empty(t, answer)
			var mce *ModelCallError
			require.ErrorAs(t, err, &mce)
			assert.Equal(t, "fake", mce.Provider)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestModelCallError_Message(t *testing.T) {
	t.Parallel()

	err := &ModelCallError{Provider: "gemini", Err: errors.New("invalid API key")}
	assert.Equal(t, "gemini: invalid API key", err.Error())
}

func TestProviderAsker_Observer(t *testing.T) {
	t.Parallel()

	var events []CallEvent
	obs := ObserverFunc(func(_ context.Context, e CallEvent) { events = append(events, e) })

	ok := NewAsker(&fakeProvider{resp: &Response{Content: "yes", Usage: Usage{InputTokens: 3}}}, WithObserver(obs))
	_, err := ok.Ask(context.Background(), "日本")
	require.NoError(t, err)

	failing := NewAsker(&fakeProvider{err: errors.New("down")}, WithObserver(MultiObserver{obs, nil, LogObserver{}}))
	_, err = failing.Ask(context.Background(), "q")
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "fake", events[0].Provider)
	assert.Equal(t, "fake-1", events[0].Model)
	assert.Equal(t, 2, events[0].PromptChars)
	require.NotNil(t, events[0].Response)
	assert.Equal(t, 3, events[0].Response.Usage.InputTokens)
	assert.NoError(t, events[0].Err)
	assert.Nil(t, events[1].Response)
	assert.EqualError(t, events[1].Err, "down")
}
