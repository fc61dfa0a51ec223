package leakix

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Kind classifies an API response.
type Kind int

const (
	KindSuccess Kind = iota
	KindRateLimited
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}

var emptyList = json.RawMessage("[]")

// RawResponse is a classified API exchange whose payload has not been
// decoded into typed results yet. It is immutable.
type RawResponse struct {
	kind       Kind
	statusCode int
	rawStatus  int
	body       []byte
	headers    http.Header
	payload    json.RawMessage
	errBody    any
}

// Classify wraps a completed exchange:
//
//   - 200 is a success; an empty or null body becomes an empty list.
//   - 204 is a success with status 200 and an empty list.
//   - 429 is rate limited.
//   - anything else is an error; the body is parsed as JSON when possible.
func Classify(statusCode int, body []byte, headers http.Header) *RawResponse {
	r := &RawResponse{
		statusCode: statusCode,
		rawStatus:  statusCode,
		body:       body,
		headers:    headers,
	}
	if r.headers == nil {
		r.headers = http.Header{}
	}

	switch statusCode {
	case http.StatusOK:
		r.kind = KindSuccess
		r.payload = successPayload(body)
	case http.StatusNoContent:
		r.kind = KindSuccess
		r.statusCode = http.StatusOK
		r.payload = emptyList
	case http.StatusTooManyRequests:
		r.kind = KindRateLimited
		r.errBody = parseErrorBody(body)
	default:
		r.kind = KindError
		r.errBody = parseErrorBody(body)
	}

	return r
}

func successPayload(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyList
	}
	return json.RawMessage(trimmed)
}

func parseErrorBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v
}

// Kind returns the classification.
func (r *RawResponse) Kind() Kind { return r.kind }

// IsSuccess reports whether the exchange succeeded.
func (r *RawResponse) IsSuccess() bool { return r.kind == KindSuccess }

// IsError reports whether the exchange failed. Rate limited responses are
// errors too.
func (r *RawResponse) IsError() bool { return r.kind != KindSuccess }

// IsRateLimited reports whether the API answered 429.
func (r *RawResponse) IsRateLimited() bool { return r.kind == KindRateLimited }

// StatusCode returns the effective status code: 200 for a 204 exchange,
// the native code otherwise.
func (r *RawResponse) StatusCode() int { return r.statusCode }

// RawStatusCode returns the status code sent by the server.
func (r *RawResponse) RawStatusCode() int { return r.rawStatus }

// Header returns the response headers.
func (r *RawResponse) Header() http.Header { return r.headers }

// Body returns the raw response body. It is nil for a collected bulk
// stream.
func (r *RawResponse) Body() []byte { return r.body }

// JSON returns the success payload as raw JSON, or nil for a failure.
func (r *RawResponse) JSON() json.RawMessage {
	if r.kind != KindSuccess {
		return nil
	}
	return r.payload
}

// ErrorBody returns the parsed error body of a failure, or nil when the
// response succeeded or its body was not JSON.
func (r *RawResponse) ErrorBody() any { return r.errBody }

// Err returns nil for a success and a typed error otherwise: an
// *AuthenticationError, *NotFoundError, *RateLimitError, *ServerError or
// *APIError.
func (r *RawResponse) Err() error {
	if r.kind == KindSuccess {
		return nil
	}
	return parseError(r.rawStatus, r.errBody, r.body, r.headers)
}

// Response is a classified exchange whose success payload has been decoded
// into T. Failures carry no typed payload; see ErrorBody and Err.
type Response[T any] struct {
	*RawResponse
	data T
}

// Data returns the decoded payload, or the zero value for a failure.
func (r *Response[T]) Data() T { return r.data }

// Decode produces the typed stage of raw. Failures pass through undecoded.
// Decoding does not change the classification or status code, and decoding
// the same RawResponse again yields an equal result.
func Decode[T any](raw *RawResponse, decode func(json.RawMessage) (T, error)) (*Response[T], error) {
	resp := &Response[T]{RawResponse: raw}
	if !raw.IsSuccess() {
		return resp, nil
	}

	data, err := decode(raw.payload)
	if err != nil {
		return nil, err
	}
	resp.data = data
	return resp, nil
}
