package canister

import (
	"encoding/json"
	"fmt"
)

// Unit is the payload of results that carry no value, e.g. {"ok":null}.
type Unit struct{}

// Result is the backend's two-case reply: exactly one of "ok" or "err".
type Result[T any] struct {
	Ok    T
	Err   string
	IsErr bool
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	okRaw, hasOk := m["ok"]
	errRaw, hasErr := m["err"]
	if hasOk == hasErr || len(m) != 1 {
		return fmt.Errorf("decode result: want exactly one of ok/err, got %d keys", len(m))
	}

	if hasErr {
		var msg string
		if err := json.Unmarshal(errRaw, &msg); err != nil {
			return fmt.Errorf("decode err variant: %w", err)
		}
		*r = Result[T]{Err: msg, IsErr: true}
		return nil
	}

	var out Result[T]
	if _, unit := any(out.Ok).(Unit); !unit {
		if err := json.Unmarshal(okRaw, &out.Ok); err != nil {
			return fmt.Errorf("decode ok variant: %w", err)
		}
	}
	*r = out
	return nil
}

// Unwrap returns the ok payload, or a *ResultError naming method.
func (r Result[T]) Unwrap(method string) (T, error) {
	if r.IsErr {
		var zero T
		return zero, &ResultError{Method: method, Message: r.Err}
	}
	return r.Ok, nil
}
