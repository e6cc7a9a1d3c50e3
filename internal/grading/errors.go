package grading

import (
	"errors"
	"fmt"
)

// ErrNoJSONObject is returned when a response holds no brace-delimited span.
var ErrNoJSONObject = errors.New("no JSON object in response")

// ParseError reports a grading response that does not satisfy the contract.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grade parse: %s: %v", e.Reason, e.Err)
	}
	return "grade parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError reports a failed call to the grading service.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("grade transport (%s): %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
