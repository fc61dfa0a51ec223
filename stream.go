package leakix

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/tphakala/go-leakix/internal/api"
	"github.com/tphakala/go-leakix/internal/telemetry"
)

// openStream dispatches a streaming operation. Streams are never retried.
// On success the caller owns the stream and must finish the call.
func (e *engine) openStream(ctx context.Context, op *operation, opts ...RequestOption) (*call, *api.Stream, error) {
	c := e.begin(ctx, op)

	if err := e.throttle(c.ctx); err != nil {
		terr := &TransportError{Op: op.name, Err: err}
		c.end(telemetry.OutcomeTransport, 0, terr)
		return nil, nil, terr
	}

	s, err := e.exec.Stream(c.ctx, op.request(opts...))
	if err != nil {
		terr := &TransportError{Op: op.name, Err: err}
		c.end(telemetry.OutcomeTransport, 0, terr)
		return nil, nil, terr
	}
	return c, s, nil
}

// streamRecords returns a single-pass sequence over the NDJSON records of a
// streaming operation. A non-200 status yields an empty sequence. Each line
// is decoded and handed to the consumer before the next one is read; the
// body is closed on every exit path.
func streamRecords[T any](ctx context.Context, e *engine, op *operation, opts ...RequestOption) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		c, s, err := e.openStream(ctx, op, opts...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = s.Close() }()

		if s.StatusCode != http.StatusOK {
			c.logger.Warn("stream not started", slog.Int("status", s.StatusCode))
			c.end(outcomeOf(Classify(s.StatusCode, nil, s.Headers).Kind()), s.StatusCode, nil)
			return
		}

		err = readLines(op.name, s.Body, func(v *T, _ []byte) bool {
			e.metrics.IncStreamRecord(op.name)
			return yield(v, nil)
		})
		if err != nil {
			c.end(telemetry.OutcomeError, s.StatusCode, err)
			yield(nil, err)
			return
		}
		c.end(telemetry.OutcomeSuccess, s.StatusCode, nil)
	}
}

// collectRecords runs a streaming operation to completion and classifies
// it like a regular response: a 429 is rate limited, a 204 an empty
// success. On success JSON returns the records as one JSON array and Body
// is nil.
func collectRecords[T any](ctx context.Context, e *engine, op *operation, opts ...RequestOption) (*Response[[]T], error) {
	c, s, err := e.openStream(ctx, op, opts...)
	if err != nil {
		return nil, err
	}

	if s.StatusCode != http.StatusOK {
		resp, err := api.ReadAll(s)
		if err != nil {
			terr := &TransportError{Op: op.name, Err: err}
			c.end(telemetry.OutcomeTransport, s.StatusCode, terr)
			return nil, terr
		}
		raw := Classify(resp.StatusCode, resp.Body, resp.Headers)
		c.end(outcomeOf(raw.Kind()), resp.StatusCode, nil)
		return Decode(raw, listDecoder[T](op.name))
	}
	defer func() { _ = s.Close() }()

	items := make([]T, 0)
	var payload bytes.Buffer
	payload.WriteByte('[')
	err = readLines(op.name, s.Body, func(v *T, line []byte) bool {
		e.metrics.IncStreamRecord(op.name)
		if len(items) > 0 {
			payload.WriteByte(',')
		}
		payload.Write(line)
		items = append(items, *v)
		return true
	})
	if err != nil {
		c.end(telemetry.OutcomeError, s.StatusCode, err)
		return nil, err
	}
	c.end(telemetry.OutcomeSuccess, s.StatusCode, nil)

	payload.WriteByte(']')

	raw := &RawResponse{
		kind:       KindSuccess,
		statusCode: http.StatusOK,
		rawStatus:  http.StatusOK,
		headers:    s.Headers,
		payload:    json.RawMessage(payload.Bytes()),
	}
	return &Response[[]T]{RawResponse: raw, data: items}, nil
}

// readLines decodes r as newline-delimited JSON, skipping blank lines, and
// passes each record with its trimmed line to emit until emit returns
// false. Read failures are returned as *TransportError and malformed lines
// as *DecodeError.
func readLines[T any](op string, r io.Reader, emit func(v *T, line []byte) bool) error {
	br := bufio.NewReader(r)

	for index := 0; ; {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return &TransportError{Op: op, Err: readErr}
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			v := new(T)
			if err := json.Unmarshal(trimmed, v); err != nil {
				return &DecodeError{Op: op, Index: index, Err: err}
			}
			index++
			if !emit(v, trimmed) {
				return nil
			}
		}

		if readErr != nil {
			return nil
		}
	}
}
