package leakix

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-leakix/internal/api"
	"github.com/tphakala/go-leakix/internal/retry"
)

const defaultHostConcurrency = 4

// AsyncClient is a LeakIX client meant for concurrent workloads. It opens
// its connection pool on first use, and Close releases it; a closed client
// reconnects transparently on the next call.
//
// Searches are always retried on rate limiting. WithMaxRetries values below
// one fall back to the default.
type AsyncClient struct {
	*service

	lazy    *api.LazyTransport
	baseURL string
}

// NewAsyncClient creates an AsyncClient. No connection is opened until the
// first request.
func NewAsyncClient(opts ...ClientOption) (*AsyncClient, error) {
	cfg := buildConfig(opts)

	// Building a throwaway transport validates the configuration up front
	// without dialing.
	validated, err := cfg.newTransport()
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{MaxRetries: cfg.maxRetries, BaseDelay: cfg.retryDelay}
	if policy.MaxRetries < 1 {
		policy.MaxRetries = retry.DefaultMaxRetries
	}

	lazy := api.NewLazyTransport(cfg.newTransport)
	eng, err := cfg.newEngine(lazy, policy)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{
		service: &service{engine: eng},
		lazy:    lazy,
		baseURL: validated.BaseURL.String(),
	}, nil
}

// BaseURL returns the configured API base URL.
func (c *AsyncClient) BaseURL() string {
	return c.baseURL
}

// Connected reports whether the connection pool is currently open.
func (c *AsyncClient) Connected() bool {
	return c.lazy.Open()
}

// Close releases the connection pool. It is safe to call more than once.
func (c *AsyncClient) Close() error {
	return c.lazy.Close()
}

// Hosts looks up several addresses concurrently, running at most
// concurrency lookups at a time (4 when concurrency is not positive).
// Results are returned in the order of ips. The first invalid argument or
// transport failure cancels the remaining lookups; API failures are
// reported per host through each response.
func (c *AsyncClient) Hosts(ctx context.Context, ips []string, concurrency int, opts ...RequestOption) ([]*Response[*HostResult], error) {
	if concurrency <= 0 {
		concurrency = defaultHostConcurrency
	}

	results := make([]*Response[*HostResult], len(ips))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, ip := range ips {
		g.Go(func() error {
			resp, err := c.Host(gctx, ip, opts...)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = resp
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
