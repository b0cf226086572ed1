package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetcher_Success(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Example</title></head><body><p>hello</p></body></html>"))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{})
	content, err := f.Fetch(context.Background(), srv.URL, Options{Headers: map[string]string{"X-Test": "yes"}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, content.StatusCode)
	assert.Contains(t, content.HTML, "<title>Example</title>")
	assert.Contains(t, content.ContentType, "text/html")

	got := <-headers
	assert.Equal(t, defaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, defaultAcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, "yes", got.Get("X-Test"))
	assert.False(t, content.FetchedAt.IsZero())
}

func TestStaticFetcher_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html><body>nope</body></html>"))
			}))
			defer srv.Close()

			_, err := NewStatic(StaticConfig{}).Fetch(context.Background(), srv.URL, Options{})

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, KindHTTPStatus, fe.Kind)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, StrategyStatic, fe.Strategy)
		})
	}
}

func TestStaticFetcher_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewStatic(StaticConfig{}).Fetch(context.Background(), srv.URL, Options{Timeout: 50 * time.Millisecond})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindTimeout, fe.Kind)
}

func TestStaticFetcher_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewStatic(StaticConfig{}).Fetch(context.Background(), url, Options{Timeout: time.Second})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindNetwork, fe.Kind)
}

func TestStaticFetcher_Metadata(t *testing.T) {
	t.Parallel()

	f := NewStatic(StaticConfig{})
	assert.True(t, f.Available())
	assert.Equal(t, StrategyStatic, f.Type())
	assert.NoError(t, f.Close())
}
