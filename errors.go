package leakix

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidArgument is matched by every *InvalidArgumentError.
var ErrInvalidArgument = errors.New("leakix: invalid argument")

// InvalidArgumentError reports a caller mistake detected before any request
// is sent.
type InvalidArgumentError struct {
	Arg    string
	Value  any
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("leakix: invalid %s %v: %s", e.Arg, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) true.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// APIError represents a non-success LeakIX API response.
type APIError struct {
	StatusCode int
	Message    string

	// Body is the parsed JSON error body, or nil if it was not JSON.
	Body any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("leakix: API error %d", e.StatusCode)
	}
	return fmt.Sprintf("leakix: API error %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError indicates a missing or rejected API key (401/403).
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("leakix: authentication failed: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthenticationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested host or domain is unknown (404).
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("leakix: not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (429), after any
// configured retries.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("leakix: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "leakix: rate limit exceeded"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ServerError indicates an internal server error (5xx).
type ServerError struct {
	APIError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("leakix: server error %d: %s", e.StatusCode, e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ServerError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// DecodeError reports a payload that could not be mapped to typed results.
// Index is the element position within the payload or stream, or -1 when
// the payload as a whole was malformed.
type DecodeError struct {
	Op    string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("leakix: %s: decoding response: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("leakix: %s: decoding element %d: %v", e.Op, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError reports a connection-level failure. It is never turned
// into a Response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("leakix: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// parseError converts a non-success response into the appropriate error type.
func parseError(statusCode int, body any, raw []byte, headers http.Header) error {
	base := APIError{
		StatusCode: statusCode,
		Body:       body,
		Message:    errorMessage(body, raw),
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthenticationError{APIError: base}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			APIError:   base,
			RetryAfter: parseRetryAfter(headers.Get("Retry-After")),
		}
	case statusCode >= http.StatusInternalServerError:
		return &ServerError{APIError: base}
	default:
		return &base
	}
}

// errorMessage picks a human readable message out of a LeakIX error body.
// The API answers with {"title","description"} on lookups and
// {"error"} or {"reason","status"} elsewhere.
func errorMessage(body any, raw []byte) string {
	obj, ok := body.(map[string]any)
	if !ok {
		if body != nil {
			b, _ := json.Marshal(body)
			return string(b)
		}
		return strings.TrimSpace(string(raw))
	}

	var parts []string
	for _, key := range []string{"title", "description", "error", "reason", "message"} {
		if s, ok := obj[key].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
