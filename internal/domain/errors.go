package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCandidate is returned when a type marked as a tool cannot serve as one.
	ErrInvalidCandidate = errors.New("invalid tool candidate")
	// ErrInvalidSchemaSource is returned when a schema request is neither JSON nor a known type.
	ErrInvalidSchemaSource = errors.New("invalid schema source")
	// ErrToolNotFound is returned when no tool is registered under a name.
	ErrToolNotFound = errors.New("tool not found")
)

// MappingError reports that a call payload does not fit the tool's argument type.
type MappingError struct {
	// Target is the name of the Go type the payload was mapped into.
	Target string
	Err    error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("could not map arguments to %s: %v", e.Target, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// HandlerInvocationError wraps a failure raised by a tool while it was built or run.
type HandlerInvocationError struct {
	Tool string
	Err  error
}

func (e *HandlerInvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *HandlerInvocationError) Unwrap() error { return e.Err }

// InvalidCandidatef builds an ErrInvalidCandidate with a formatted reason.
func InvalidCandidatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCandidate, fmt.Sprintf(format, args...))
}
