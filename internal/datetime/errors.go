package datetime

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every MalformedInputError through errors.Is.
var ErrMalformedInput = errors.New("malformed date/time input")

// MalformedInputError reports a date or time string whose token count or
// token shape does not match the expected encoding.
type MalformedInputError struct {
	Input  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed date/time %q: %s", e.Input, e.Reason)
}

// Is lets callers test with errors.Is(err, ErrMalformedInput).
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func malformed(input, format string, args ...any) error {
	return &MalformedInputError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
