package leakix_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-leakix"
)

func setupAsyncServer(t *testing.T, handler http.HandlerFunc, opts ...leakix.ClientOption) *leakix.AsyncClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]leakix.ClientOption{
		leakix.WithBaseURL(server.URL),
		leakix.WithAPIKey("test-api-key"),
		leakix.WithRetryDelay(time.Millisecond),
	}, opts...)

	client, err := leakix.NewAsyncClient(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewAsyncClient(t *testing.T) {
	t.Run("connects lazily", func(t *testing.T) {
		client, err := leakix.NewAsyncClient()
		require.NoError(t, err)
		assert.False(t, client.Connected())
		assert.Equal(t, leakix.DefaultBaseURL, client.BaseURL())
	})

	t.Run("invalid base URL", func(t *testing.T) {
		_, err := leakix.NewAsyncClient(leakix.WithBaseURL("://nope"))
		require.Error(t, err)
	})
}

func TestAsyncClient_Lifecycle(t *testing.T) {
	client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Plugins(context.Background())
	require.NoError(t, err)
	assert.True(t, client.Connected())

	require.NoError(t, client.Close())
	assert.False(t, client.Connected())
	require.NoError(t, client.Close())

	resp, err := client.Plugins(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.True(t, client.Connected())
}

func TestAsyncClient_Search(t *testing.T) {
	t.Run("same results as blocking client", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"ip":"192.0.2.1","port":"8080"}]`))
		}
		async := setupAsyncServer(t, handler)
		blocking := setupTestServer(t, handler)

		a, err := async.Services(context.Background(), nil, 0)
		require.NoError(t, err)
		b, err := blocking.Services(context.Background(), nil, 0)
		require.NoError(t, err)
		assert.Equal(t, b.Data(), a.Data())
	})

	t.Run("retry cannot be disabled", func(t *testing.T) {
		var calls atomic.Int32
		client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		}, leakix.WithMaxRetries(0))

		resp, err := client.Leaks(context.Background(), nil, 0)
		require.NoError(t, err)
		assert.True(t, resp.IsSuccess())
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("exhausted retries", func(t *testing.T) {
		var calls atomic.Int32
		client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}, leakix.WithMaxRetries(2))

		resp, err := client.Services(context.Background(), nil, 0)
		require.NoError(t, err)
		assert.True(t, resp.IsRateLimited())
		assert.Nil(t, resp.Data())
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestAsyncClient_Hosts(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)

			ip := strings.TrimPrefix(r.URL.Path, "/host/")
			if ip == "192.0.2.3" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"Services":[{"ip":"` + ip + `"}]}`))
		})

		ips := []string{"192.0.2.1", "192.0.2.2", "192.0.2.3", "192.0.2.4", "192.0.2.5"}
		results, err := client.Hosts(context.Background(), ips, 2)
		require.NoError(t, err)
		require.Len(t, results, len(ips))

		for i, ip := range ips {
			if ip == "192.0.2.3" {
				assert.True(t, results[i].IsError())
				continue
			}
			require.True(t, results[i].IsSuccess())
			assert.Equal(t, ip, results[i].Data().Services[0].Event.IP)
		}
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("invalid address fails the batch", func(t *testing.T) {
		client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := client.Hosts(context.Background(), []string{"192.0.2.1", ""}, 0)
		require.ErrorIs(t, err, leakix.ErrInvalidArgument)
	})
}

func TestAsyncClient_BulkExportStream(t *testing.T) {
	client := setupAsyncServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ndjsonBody))
	})

	aggs, err := leakix.Collect(client.BulkExportStream(context.Background(), nil))
	require.NoError(t, err)
	assert.Len(t, aggs, 3)
}
