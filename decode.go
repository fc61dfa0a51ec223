package leakix

import (
	"bytes"
	"encoding/json"
)

// listDecoder returns a decoder mapping a JSON array onto []T. Any element
// failure is fatal.
func listDecoder[T any](op string) func(json.RawMessage) ([]T, error) {
	return func(payload json.RawMessage) ([]T, error) {
		var elems []json.RawMessage
		if err := json.Unmarshal(payload, &elems); err != nil {
			return nil, &DecodeError{Op: op, Index: -1, Err: err}
		}

		out := make([]T, 0, len(elems))
		for i, elem := range elems {
			var v T
			if err := json.Unmarshal(elem, &v); err != nil {
				return nil, &DecodeError{Op: op, Index: i, Err: err}
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// hostPayload is the wire shape of host and domain lookups.
type hostPayload struct {
	Services []json.RawMessage `json:"Services"`
	Leaks    []json.RawMessage `json:"Leaks"`
}

// decodeHostResult maps a lookup payload onto a HostResult. Elements that do
// not decode as events are kept raw. A payload that is not an object (an
// empty list for 204) yields an empty result.
func decodeHostResult(op string) func(json.RawMessage) (*HostResult, error) {
	return func(payload json.RawMessage) (*HostResult, error) {
		result := &HostResult{
			Services: []HostEvent{},
			Leaks:    []HostEvent{},
		}

		trimmed := bytes.TrimSpace(payload)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return result, nil
		}

		var wire hostPayload
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, &DecodeError{Op: op, Index: -1, Err: err}
		}

		for _, elem := range wire.Services {
			result.Services = append(result.Services, decodeHostEvent(elem))
		}
		for _, elem := range wire.Leaks {
			result.Leaks = append(result.Leaks, decodeHostEvent(elem))
		}
		return result, nil
	}
}
