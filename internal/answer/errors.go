package answer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformed      = errors.New("malformed answer")
	ErrNotPublished   = errors.New("form is not accepting responses yet")
	ErrDeadlinePassed = errors.New("form deadline has passed")
)

// MalformedError rejects a value that does not fit its question.
type MalformedError struct {
	Index  int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("answer %d: %s", e.Index, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// ValidationError lists the required questions left unanswered.
type ValidationError struct {
	Indices []int
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		parts[i] = strconv.Itoa(idx)
	}
	return "required questions unanswered: " + strings.Join(parts, ", ")
}
