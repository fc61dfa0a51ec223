package leakix

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// ClientOption configures a Client or AsyncClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	timeout        time.Duration
	userAgent      string
	maxRetries     int
	retryDelay     time.Duration
	logger         *slog.Logger
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	limiter        *rate.Limiter
}

// WithBaseURL sets the LeakIX API base URL. An empty value keeps the default.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the LeakIX API key. Without a key the client queries the
// API anonymously.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *clientConfig) {
		c.apiKey = apiKey
	}
}

// WithHTTPClient sets a custom HTTP client.
// Note: the client's own timeout applies to streams as well.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout of non-streaming requests and the wait for
// response headers on streams.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithMaxRetries sets how many times a rate limited search is retried.
// Zero disables retries on a Client; an AsyncClient always retries and
// falls back to the default for values below one.
func WithMaxRetries(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the delay before the first retry. Each further retry
// waits twice as long as the previous one.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.retryDelay = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics registers the client's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithTracerProvider enables OpenTelemetry spans for each operation and
// instruments the HTTP transport.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

// WithRateLimit throttles outgoing requests, retries included, to r per
// second with the given burst.
func WithRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *clientConfig) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}
