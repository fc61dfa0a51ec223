package api

import (
	"context"
	"sync"
)

// LazyTransport creates its Transport on first use and recreates it after
// Close. The mutex guards only the lookup; exchanges run without holding it,
// so a long stream never blocks other callers.
type LazyTransport struct {
	factory func() (*Transport, error)

	mu      sync.Mutex
	current *Transport
}

// NewLazyTransport returns a LazyTransport that builds transports with factory.
func NewLazyTransport(factory func() (*Transport, error)) *LazyTransport {
	return &LazyTransport{factory: factory}
}

// Transport returns the live transport, creating it if needed.
func (l *LazyTransport) Transport() (*Transport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		t, err := l.factory()
		if err != nil {
			return nil, err
		}
		l.current = t
	}
	return l.current, nil
}

// Open reports whether a transport is currently live.
func (l *LazyTransport) Open() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

// Do implements Executor.
func (l *LazyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	t, err := l.Transport()
	if err != nil {
		return nil, err
	}
	return t.Do(ctx, req)
}

// Stream implements Executor.
func (l *LazyTransport) Stream(ctx context.Context, req *Request) (*Stream, error) {
	t, err := l.Transport()
	if err != nil {
		return nil, err
	}
	return t.Stream(ctx, req)
}

// Close drops the live transport and its idle connections. In-flight
// exchanges finish on the connections they hold. Calling Close on a closed
// LazyTransport is a no-op.
func (l *LazyTransport) Close() error {
	l.mu.Lock()
	t := l.current
	l.current = nil
	l.mu.Unlock()

	if t != nil && t.HTTPClient != nil {
		t.HTTPClient.CloseIdleConnections()
	}
	return nil
}
