package canister

import (
	"errors"
	"fmt"
)

// ErrRateLimited is wrapped by TransportError when the gateway kept answering 429.
var ErrRateLimited = errors.New("canister gateway rate limited")

// ResultError is a call that completed but returned the err variant.
type ResultError struct {
	Method  string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// TransportError is a call that never produced a decodable result.
type TransportError struct {
	Method string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: gateway status %d: %v", e.Method, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsResultError reports whether err carries a backend err variant.
func IsResultError(err error) bool {
	var re *ResultError
	return errors.As(err, &re)
}

// IsTransportError reports whether err is a network or gateway failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
