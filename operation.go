package leakix

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-leakix/internal/api"
	"github.com/tphakala/go-leakix/internal/retry"
	"github.com/tphakala/go-leakix/internal/telemetry"
)

// MaxResultsPerPage is the number of results the API returns per search page.
const MaxResultsPerPage = 20

// operation describes one API call independently of the executor running it.
type operation struct {
	name  string
	path  string
	query url.Values
	retry bool
}

func (op *operation) request(opts ...RequestOption) *api.Request {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	return &api.Request{
		Method:  http.MethodGet,
		Path:    op.path,
		Query:   op.query,
		Headers: reqCfg.headers,
	}
}

func searchOperation(scope Scope, queries []Query, page int) (*operation, error) {
	if page < 0 {
		return nil, &InvalidArgumentError{Arg: "page", Value: page, Reason: "must be a positive integer"}
	}
	if !scope.Valid() {
		return nil, &InvalidArgumentError{Arg: "scope", Value: scope, Reason: `must be "service" or "leak"`}
	}

	return &operation{
		name: "search",
		path: "/search",
		query: url.Values{
			"scope": {string(scope)},
			"q":     {QuerySet(queries).Serialize()},
			"page":  {strconv.Itoa(page)},
		},
		retry: true,
	}, nil
}

// lookupOperation builds a path-parameterized lookup such as /host/{ip}.
func lookupOperation(name, prefix, arg, value string) (*operation, error) {
	if value == "" {
		return nil, &InvalidArgumentError{Arg: arg, Value: `""`, Reason: "must not be empty"}
	}
	// PathEscape leaves dots alone and the base URL join would resolve them.
	if value == "." || value == ".." {
		return nil, &InvalidArgumentError{Arg: arg, Value: value, Reason: "must not be a dot segment"}
	}
	return &operation{
		name: name,
		path: prefix + url.PathEscape(value),
	}, nil
}

func pluginsOperation() *operation {
	return &operation{name: "plugins", path: "/api/plugins"}
}

func bulkOperation(name, path string, queries []Query) *operation {
	return &operation{
		name:  name,
		path:  path,
		query: url.Values{"q": {QuerySet(queries).Serialize()}},
	}
}

// engine runs operations against an executor. Client and AsyncClient share
// it and differ only in the executor and retry policy they configure.
type engine struct {
	exec    api.Executor
	policy  retry.Policy
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// call tracks the telemetry of one logical operation.
type call struct {
	op     *operation
	ctx    context.Context
	span   trace.Span
	logger *slog.Logger
	start  time.Time
	e      *engine
}

func (e *engine) begin(ctx context.Context, op *operation) *call {
	callID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "leakix."+op.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("leakix.operation", op.name),
			attribute.String("leakix.call_id", callID),
		),
	)

	return &call{
		op:     op,
		ctx:    ctx,
		span:   span,
		logger: e.logger.With(slog.String("operation", op.name), slog.String("call_id", callID)),
		start:  time.Now(),
		e:      e,
	}
}

// end records the outcome of the call. status is 0 when no response arrived.
func (c *call) end(outcome string, status int, err error) {
	elapsed := time.Since(c.start)
	c.e.metrics.ObserveRequest(c.op.name, outcome, elapsed)

	if status != 0 {
		c.span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("request failed",
			slog.String("path", c.op.path),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
	} else {
		if outcome != telemetry.OutcomeSuccess {
			c.span.SetStatus(codes.Error, outcome)
		}
		c.logger.Debug("request completed",
			slog.String("path", c.op.path),
			slog.Int("status", status),
			slog.String("outcome", outcome),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}
	c.span.End()
}

func (e *engine) throttle(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// do runs a non-streaming operation, retrying on 429 when the operation
// allows it, and classifies the final exchange.
func (e *engine) do(ctx context.Context, op *operation, opts ...RequestOption) (*RawResponse, error) {
	c := e.begin(ctx, op)
	req := op.request(opts...)

	var schedule backoff.BackOff = &backoff.StopBackOff{}
	if op.retry {
		schedule = e.policy.Schedule()
	}

	for attempt := 1; ; attempt++ {
		if err := e.throttle(c.ctx); err != nil {
			terr := &TransportError{Op: op.name, Err: err}
			c.end(telemetry.OutcomeTransport, 0, terr)
			return nil, terr
		}

		resp, err := e.exec.Do(c.ctx, req)
		if err != nil {
			terr := &TransportError{Op: op.name, Err: err}
			c.end(telemetry.OutcomeTransport, 0, terr)
			return nil, terr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if delay := schedule.NextBackOff(); delay != backoff.Stop {
				c.logger.Warn("rate limited, retrying",
					slog.Int("attempt", attempt),
					slog.Duration("delay", delay),
				)
				e.metrics.IncRetry(op.name)
				c.span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))

				if err := retry.Wait(c.ctx, delay); err != nil {
					terr := &TransportError{Op: op.name, Err: err}
					c.end(telemetry.OutcomeTransport, 0, terr)
					return nil, terr
				}
				continue
			}
		}

		raw := Classify(resp.StatusCode, resp.Body, resp.Headers)
		c.end(outcomeOf(raw.Kind()), raw.RawStatusCode(), nil)
		return raw, nil
	}
}

func outcomeOf(k Kind) string {
	switch k {
	case KindSuccess:
		return telemetry.OutcomeSuccess
	case KindRateLimited:
		return telemetry.OutcomeRateLimited
	default:
		return telemetry.OutcomeError
	}
}
