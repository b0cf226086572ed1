package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmylchreest/pagewise/pkg/fetcher"
	"github.com/jmylchreest/pagewise/pkg/llm"
	"github.com/jmylchreest/pagewise/pkg/page"
	"github.com/jmylchreest/pagewise/pkg/pagewise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAsker struct {
	ans *pagewise.Answer
	err error
	got chan pagewise.Request
}

func (s *stubAsker) Ask(_ context.Context, req pagewise.Request) (*pagewise.Answer, error) {
	if s.got != nil {
		s.got <- req
	}
	return s.ans, s.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	t.Parallel()

	rec := do(t, New(&stubAsker{}, Config{}).Handler(), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, WelcomeMessage, body["message"])
	assert.NotEmpty(t, body["version"])
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestQuery(t *testing.T) {
	t.Parallel()

	asker := &stubAsker{
		ans: &pagewise.Answer{
			Text: "The categories are Travel and Mystery.",
			Page: &pagewise.Page{Strategy: fetcher.StrategyStatic},
		},
		got: make(chan pagewise.Request, 1),
	}
	h := New(asker, Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/query",
		`{"url": "https://books.toscrape.com/", "question": "What categories exist?", "topic": "books"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, QueryResponse{
		URL:      "https://books.toscrape.com/",
		Question: "What categories exist?",
		Answer:   "The categories are Travel and Mystery.",
		Strategy: "static",
	}, resp)
	assert.Equal(t, pagewise.Request{
		URL:      "https://books.toscrape.com/",
		Question: "What categories exist?",
		Topic:    "books",
	}, <-asker.got)
}

func TestQuery_BudgetOverrides(t *testing.T) {
	t.Parallel()

	asker := &stubAsker{
		ans: &pagewise.Answer{Text: "ok", Page: &pagewise.Page{Strategy: fetcher.StrategyStatic}},
		got: make(chan pagewise.Request, 1),
	}

	rec := do(t, New(asker, Config{}).Handler(), http.MethodPost, "/query",
		`{"url": "https://example.com", "question": "q", "max_items": 5, "max_chars": 500}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := <-asker.got
	assert.Equal(t, 5, got.MaxItems)
	assert.Equal(t, 500, got.MaxChars)
}

func TestQuery_DegradedAnswer(t *testing.T) {
	t.Parallel()

	asker := &stubAsker{ans: &pagewise.Answer{
		Text: "Error contacting gemini: quota exceeded",
		Err:  &llm.ModelCallError{Provider: "gemini", Err: errors.New("quota exceeded")},
		Page: &pagewise.Page{Strategy: "rendered"},
	}}

	rec := do(t, New(asker, Config{}).Handler(), http.MethodPost, "/query", `{"url":"a.com","question":"q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Degraded)
	assert.Equal(t, "Error contacting gemini: quota exceeded", resp.Answer)
}

func TestQuery_Errors(t *testing.T) {
	t.Parallel()

	allFailed := &fetcher.AllStrategiesFailedError{
		URL: "https://down.example",
		Failures: []fetcher.Failure{{
			Strategy: "static",
			Err:      &fetcher.FetchError{Strategy: "static", Kind: fetcher.KindTimeout, Err: context.DeadlineExceeded},
		}},
	}

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "malformed json", body: `{"url":`, wantStatus: http.StatusBadRequest, wantError: "invalid JSON body"},
		{name: "unknown field", body: `{"url":"a.com","question":"q","extra":1}`, wantStatus: http.StatusBadRequest, wantError: "invalid JSON body"},
		{name: "trailing data", body: `{"url":"a.com","question":"q"} {}`, wantStatus: http.StatusBadRequest, wantError: "trailing data"},
		{name: "validation", body: `{"url":"a.com"}`, err: fmt.Errorf("%w: question is required", pagewise.ErrInvalidRequest), wantStatus: http.StatusBadRequest, wantError: "question is required"},
		{name: "bad url", body: `{"url":"ftp://a","question":"q"}`, err: fmt.Errorf("%w: scheme", page.ErrInvalidURL), wantStatus: http.StatusBadRequest},
		{name: "all strategies failed", body: `{"url":"https://down.example","question":"q"}`, err: allFailed, wantStatus: http.StatusBadGateway, wantError: "all fetch strategies failed"},
		{name: "deadline", body: `{"url":"a.com","question":"q"}`, err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
		{name: "other", body: `{"url":"a.com","question":"q"}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantError: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := New(&stubAsker{err: tt.err}, Config{}).Handler()

			rec := do(t, h, http.MethodPost, "/query", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantError)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.RequestID)
		})
	}
}

func TestQuery_BodyLimit(t *testing.T) {
	t.Parallel()

	h := New(&stubAsker{}, Config{MaxBodyBytes: 16}).Handler()
	rec := do(t, h, http.MethodPost, "/query", `{"url":"https://example.com","question":"q"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouting(t *testing.T) {
	t.Parallel()

	h := New(&stubAsker{}, Config{}).Handler()

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/query", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	h := New(&stubAsker{}, Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err, "a fresh UUID is assigned")

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader), "a valid incoming ID is kept")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- New(&stubAsker{}, Config{Addr: "127.0.0.1:0"}).ListenAndServe(ctx)
	}()

	cancel()
	assert.NoError(t, <-errCh)
}
