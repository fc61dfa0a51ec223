package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-leakix/internal/auth"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc, creds *auth.Credentials) *Transport {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr, err := NewTransport(server.URL, creds, nil)
	require.NoError(t, err)
	return tr
}

func TestNewTransport(t *testing.T) {
	t.Run("trims trailing slash", func(t *testing.T) {
		tr, err := NewTransport("https://leakix.net/", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://leakix.net", tr.BaseURL.String())
		assert.NotNil(t, tr.HTTPClient)
	})

	t.Run("rejects URL without host", func(t *testing.T) {
		_, err := NewTransport("leakix.net", nil, nil)
		require.Error(t, err)
	})

	t.Run("rejects unparsable URL", func(t *testing.T) {
		_, err := NewTransport("http://[::1", nil, nil)
		require.Error(t, err)
	})
}

func TestTransport_Do(t *testing.T) {
	t.Run("sends default headers and query", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Equal(t, "go-leakix", r.Header.Get("User-Agent"))
			assert.Equal(t, "k", r.Header.Get("api-key"))
			assert.Equal(t, "+country:France", r.URL.Query().Get("q"))
			assert.Equal(t, "v", r.Header.Get("X-Custom"))
			_, _ = w.Write([]byte(`[]`))
		}, &auth.Credentials{APIKey: "k"})

		resp, err := tr.Do(context.Background(), &Request{
			Path:    "/search",
			Query:   url.Values{"q": {"+country:France"}},
			Headers: http.Header{"X-Custom": {"v"}},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "[]", string(resp.Body))
	})

	t.Run("no api-key header without credentials", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
			_, ok := r.Header["Api-Key"]
			assert.False(t, ok)
			w.WriteHeader(http.StatusNoContent)
		}, nil)

		resp, err := tr.Do(context.Background(), &Request{Path: "/api/plugins"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Body)
	})

	t.Run("timeout surfaces as error", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}, nil)
		tr.Timeout = 20 * time.Millisecond

		_, err := tr.Do(context.Background(), &Request{Path: "/host/1.1.1.1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTransport_Stream(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bulk/search", r.URL.Path)
		_, _ = w.Write([]byte("{\"a\":1}\n{\"a\":2}\n"))
	}, nil)

	s, err := tr.Stream(context.Background(), &Request{Path: "/bulk/search"})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, http.StatusOK, s.StatusCode)
	body, err := io.ReadAll(s.Body)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", string(body))
}

func TestReadAll(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate-limit"}`))
	}, nil)

	s, err := tr.Stream(context.Background(), &Request{Path: "/bulk/search"})
	require.NoError(t, err)

	resp, err := ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate-limit"}`, string(resp.Body))
}

func TestLazyTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	var created atomic.Int32
	lazy := NewLazyTransport(func() (*Transport, error) {
		created.Add(1)
		return NewTransport(server.URL, nil, nil)
	})

	assert.False(t, lazy.Open())
	assert.Equal(t, int32(0), created.Load(), "transport must not be created eagerly")

	_, err := lazy.Do(context.Background(), &Request{Path: "/api/plugins"})
	require.NoError(t, err)
	assert.True(t, lazy.Open())

	_, err = lazy.Do(context.Background(), &Request{Path: "/api/plugins"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), created.Load(), "transport is reused")

	require.NoError(t, lazy.Close())
	require.NoError(t, lazy.Close(), "close is idempotent")
	assert.False(t, lazy.Open())

	s, err := lazy.Stream(context.Background(), &Request{Path: "/bulk/search"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, int32(2), created.Load(), "transport is recreated after close")
}
