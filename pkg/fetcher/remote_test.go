package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFetcher_SendsQueryParameters(t *testing.T) {
	t.Parallel()

	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_, _ = w.Write([]byte("<html><body><h1>Rendered</h1></body></html>"))
	}))
	defer srv.Close()

	f := NewRemote(RemoteConfig{Endpoint: srv.URL, APIKey: "secret"})
	content, err := f.Fetch(context.Background(), "https://example.com/page?a=1", Options{})

	require.NoError(t, err)
	assert.Contains(t, content.HTML, "<h1>Rendered</h1>")
	got := <-queries
	assert.Equal(t, "secret", got.Get("api_key"))
	assert.Equal(t, "https://example.com/page?a=1", got.Get("url"))
	assert.Equal(t, "true", got.Get("render"))
}

func TestRemoteFetcher_CustomParameterNames(t *testing.T) {
	t.Parallel()

	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewRemote(RemoteConfig{
		Endpoint:    srv.URL + "/render?fixed=1",
		APIKey:      "k",
		KeyParam:    "token",
		URLParam:    "target",
		RenderParam: "js",
	})
	_, err := f.Fetch(context.Background(), "https://example.com", Options{})

	require.NoError(t, err)
	got := <-queries
	assert.Equal(t, "1", got.Get("fixed"))
	assert.Equal(t, "k", got.Get("token"))
	assert.Equal(t, "https://example.com", got.Get("target"))
	assert.Equal(t, "true", got.Get("js"))
}

func TestRemoteFetcher_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewRemote(RemoteConfig{Endpoint: srv.URL, APIKey: "bad"}).Fetch(context.Background(), "https://example.com", Options{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.NotContains(t, err.Error(), "bad", "the API key must not leak into error messages")
}

func TestRemoteFetcher_Available(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  RemoteConfig
		want bool
	}{
		{"unconfigured", RemoteConfig{}, false},
		{"endpoint only", RemoteConfig{Endpoint: "https://render.example"}, false},
		{"key only", RemoteConfig{APIKey: "k"}, false},
		{"configured", RemoteConfig{Endpoint: "https://render.example", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRemote(tt.cfg).Available())
		})
	}
}

func TestRemoteFetcher_FetchWhenUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewRemote(RemoteConfig{}).Fetch(context.Background(), "https://example.com", Options{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StrategyRemote, fe.Strategy)
}
