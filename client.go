package leakix

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/tphakala/go-leakix/internal/api"
	"github.com/tphakala/go-leakix/internal/auth"
	"github.com/tphakala/go-leakix/internal/retry"
	"github.com/tphakala/go-leakix/internal/telemetry"
)

// Version is the client version reported in the User-Agent header.
const Version = "0.1.0"

// Default configuration values.
const (
	DefaultBaseURL = "https://leakix.net"
	defaultTimeout = 30 * time.Second
	tracerName     = "github.com/tphakala/go-leakix"
)

func defaultConfig() *clientConfig {
	policy := retry.Default()
	return &clientConfig{
		baseURL:    DefaultBaseURL,
		timeout:    defaultTimeout,
		userAgent:  "go-leakix/" + Version,
		maxRetries: policy.MaxRetries,
		retryDelay: policy.BaseDelay,
	}
}

func buildConfig(opts []ClientOption) *clientConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// newTransport builds a transport with its own connection pool, unless the
// caller supplied an HTTP client.
func (cfg *clientConfig) newTransport() (*api.Transport, error) {
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = api.NewHTTPClient(cfg.timeout)
		if cfg.tracerProvider != nil {
			httpClient.Transport = otelhttp.NewTransport(httpClient.Transport,
				otelhttp.WithTracerProvider(cfg.tracerProvider),
			)
		}
	}

	transport, err := api.NewTransport(cfg.baseURL, &auth.Credentials{APIKey: cfg.apiKey}, httpClient)
	if err != nil {
		return nil, err
	}

	transport.Timeout = cfg.timeout
	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}
	return transport, nil
}

func (cfg *clientConfig) newEngine(exec api.Executor, policy retry.Policy) (*engine, error) {
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var metrics *telemetry.Metrics
	if cfg.registerer != nil {
		m, err := telemetry.NewMetrics(cfg.registerer)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &engine{
		exec:    exec,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
		tracer:  tp.Tracer(tracerName),
		limiter: cfg.limiter,
	}, nil
}

// Client is the blocking LeakIX API client. Every call sends one request
// (plus rate-limit retries for searches) over a shared connection pool.
// A Client is safe for concurrent use.
type Client struct {
	*service

	transport *api.Transport
}

// NewClient creates a new LeakIX client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := buildConfig(opts)

	transport, err := cfg.newTransport()
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{MaxRetries: max(cfg.maxRetries, 0), BaseDelay: cfg.retryDelay}
	eng, err := cfg.newEngine(transport, policy)
	if err != nil {
		return nil, err
	}

	return &Client{
		service:   &service{engine: eng},
		transport: transport,
	}, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}

// Service lists the LeakIX API operations shared by Client and AsyncClient.
//
//go:generate mockery --name=Service --output=mocks --outpkg=mocks --filename=service.go
type Service interface {
	Search(ctx context.Context, scope Scope, queries []Query, page int, opts ...RequestOption) (*RawResponse, error)
	Services(ctx context.Context, queries []Query, page int, opts ...RequestOption) (*Response[[]Event], error)
	Leaks(ctx context.Context, queries []Query, page int, opts ...RequestOption) (*Response[[]Event], error)
	SearchQuery(ctx context.Context, query string, scope Scope, page int, opts ...RequestOption) (*Response[[]Event], error)
	SearchAll(ctx context.Context, scope Scope, queries []Query, opts ...RequestOption) iter.Seq2[*Event, error]
	Host(ctx context.Context, ip string, opts ...RequestOption) (*Response[*HostResult], error)
	Domain(ctx context.Context, domain string, opts ...RequestOption) (*Response[*HostResult], error)
	Subdomains(ctx context.Context, domain string, opts ...RequestOption) (*Response[[]Subdomain], error)
	Plugins(ctx context.Context, opts ...RequestOption) (*Response[[]PluginResult], error)
	BulkExport(ctx context.Context, queries []Query, opts ...RequestOption) (*Response[[]Aggregation], error)
	BulkExportStream(ctx context.Context, queries []Query, opts ...RequestOption) iter.Seq2[*Aggregation, error]
	BulkService(ctx context.Context, queries []Query, opts ...RequestOption) (*Response[[]Event], error)
	BulkServiceStream(ctx context.Context, queries []Query, opts ...RequestOption) iter.Seq2[*Event, error]
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*AsyncClient)(nil)
)

// service implements the API operations on top of an engine. It is embedded
// by both Client and AsyncClient.
type service struct {
	engine *engine
}

// Search runs a search and returns the classified response without decoding
// it. Use Services or Leaks for typed results. Page numbers start at 0; a
// negative page fails before any request is sent. Rate limited searches are
// retried with exponential backoff.
func (s *service) Search(ctx context.Context, scope Scope, queries []Query, page int, opts ...RequestOption) (*RawResponse, error) {
	op, err := searchOperation(scope, queries, page)
	if err != nil {
		return nil, err
	}
	return s.engine.do(ctx, op, opts...)
}

// Services searches service events.
func (s *service) Services(ctx context.Context, queries []Query, page int, opts ...RequestOption) (*Response[[]Event], error) {
	return s.searchEvents(ctx, ScopeService, queries, page, opts...)
}

// Leaks searches leak events.
func (s *service) Leaks(ctx context.Context, queries []Query, page int, opts ...RequestOption) (*Response[[]Event], error) {
	return s.searchEvents(ctx, ScopeLeak, queries, page, opts...)
}

// SearchQuery runs a search written in the website syntax, for example
// `+plugin:GitConfigHttpPlugin +country:"France"`.
func (s *service) SearchQuery(ctx context.Context, query string, scope Scope, page int, opts ...RequestOption) (*Response[[]Event], error) {
	return s.searchEvents(ctx, scope, []Query{RawQuery(query)}, page, opts...)
}

func (s *service) searchEvents(ctx context.Context, scope Scope, queries []Query, page int, opts ...RequestOption) (*Response[[]Event], error) {
	raw, err := s.Search(ctx, scope, queries, page, opts...)
	if err != nil {
		return nil, err
	}
	return Decode(raw, listDecoder[Event]("search"))
}

// SearchAll returns an iterator over every result of a search.
// The iterator fetches pages lazily as you iterate and stops after a page
// holding fewer than MaxResultsPerPage results. A failed page is yielded as
// its Err.
func (s *service) SearchAll(ctx context.Context, scope Scope, queries []Query, opts ...RequestOption) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for page := 0; ; page++ {
			resp, err := s.searchEvents(ctx, scope, queries, page, opts...)
			if err != nil {
				yield(nil, err)
				return
			}
			if resp.IsError() {
				yield(nil, resp.Err())
				return
			}

			events := resp.Data()
			if !yieldPageItems(ctx, events, yield) {
				return
			}

			if len(events) < MaxResultsPerPage {
				return
			}
		}
	}
}

// yieldPageItems yields each event from the page to the iterator.
// Returns false if iteration should stop (context cancelled or yield returned false).
func yieldPageItems(ctx context.Context, events []Event, yield func(*Event, error) bool) bool {
	for i := range events {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return false
		}
		if !yield(&events[i], nil) {
			return false
		}
	}
	return true
}

// Host returns the services and leaks of an IPv4 or IPv6 address. Entries
// that do not decode as events are kept raw rather than failing the call.
func (s *service) Host(ctx context.Context, ip string, opts ...RequestOption) (*Response[*HostResult], error) {
	op, err := lookupOperation("host", "/host/", "ip", ip)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, op, opts...)
}

// Domain returns the services and leaks of a domain.
func (s *service) Domain(ctx context.Context, domain string, opts ...RequestOption) (*Response[*HostResult], error) {
	op, err := lookupOperation("domain", "/domain/", "domain", domain)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, op, opts...)
}

func (s *service) lookup(ctx context.Context, op *operation, opts ...RequestOption) (*Response[*HostResult], error) {
	raw, err := s.engine.do(ctx, op, opts...)
	if err != nil {
		return nil, err
	}
	return Decode(raw, decodeHostResult(op.name))
}

// Subdomains lists the known subdomains of a domain.
func (s *service) Subdomains(ctx context.Context, domain string, opts ...RequestOption) (*Response[[]Subdomain], error) {
	op, err := lookupOperation("subdomains", "/api/subdomains/", "domain", domain)
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.do(ctx, op, opts...)
	if err != nil {
		return nil, err
	}
	return Decode(raw, listDecoder[Subdomain](op.name))
}

// Plugins lists the plugins available to the API key.
func (s *service) Plugins(ctx context.Context, opts ...RequestOption) (*Response[[]PluginResult], error) {
	op := pluginsOperation()

	raw, err := s.engine.do(ctx, op, opts...)
	if err != nil {
		return nil, err
	}
	return Decode(raw, listDecoder[PluginResult](op.name))
}

// BulkExport downloads every leak aggregation matching the queries (Pro API
// feature). The stream is read to completion; use BulkExportStream to
// process records as they arrive.
func (s *service) BulkExport(ctx context.Context, queries []Query, opts ...RequestOption) (*Response[[]Aggregation], error) {
	return collectRecords[Aggregation](ctx, s.engine, bulkExportOperation(queries), opts...)
}

// BulkExportStream returns a single-pass iterator over the leak aggregations
// matching the queries. Records are decoded one line at a time; breaking
// out of the loop closes the connection. A non-200 answer yields nothing.
func (s *service) BulkExportStream(ctx context.Context, queries []Query, opts ...RequestOption) iter.Seq2[*Aggregation, error] {
	return streamRecords[Aggregation](ctx, s.engine, bulkExportOperation(queries), opts...)
}

// BulkService downloads every service event matching the queries.
func (s *service) BulkService(ctx context.Context, queries []Query, opts ...RequestOption) (*Response[[]Event], error) {
	return collectRecords[Event](ctx, s.engine, bulkServiceOperation(queries), opts...)
}

// BulkServiceStream returns a single-pass iterator over the service events
// matching the queries.
func (s *service) BulkServiceStream(ctx context.Context, queries []Query, opts ...RequestOption) iter.Seq2[*Event, error] {
	return streamRecords[Event](ctx, s.engine, bulkServiceOperation(queries), opts...)
}

func bulkExportOperation(queries []Query) *operation {
	return bulkOperation("bulk_export", "/bulk/search", queries)
}

func bulkServiceOperation(queries []Query) *operation {
	return bulkOperation("bulk_service", "/bulk/service", queries)
}
