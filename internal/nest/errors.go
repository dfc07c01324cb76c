package nest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotRegistered = errors.New("user is not registered or signed in")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEventNotFound = errors.New("event not found")
	ErrForbidden     = errors.New("only the organiser can change this event")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCalendarEmpty = errors.New("calendar is empty")

	ErrInvalidUsername = fmt.Errorf("%w: username must be 3-32 letters, digits or underscores", ErrInvalidInput)
	ErrUnknownCity     = fmt.Errorf("%w: unknown city", ErrInvalidInput)
)

// FieldError is one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in an EventForm.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Is lets callers match any ValidationError with ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Messages returns the field messages in form order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return msgs
}
