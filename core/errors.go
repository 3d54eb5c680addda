package live

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// controller's current state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrControllerClosed is returned once Close has been called.
	ErrControllerClosed = errors.New("controller closed")
	// ErrSessionStopped is returned by Start when Stop wins the race
	// against connecting.
	ErrSessionStopped = errors.New("session stopped before it became active")
)

// ResourceError reports a local device that could not be acquired or
// started.
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to acquire %s: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// TransportError reports a failure talking to the remote endpoint.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports an inbound audio chunk that could not be decoded.
// The chunk is dropped and the session continues.
type DecodeError struct {
	MIMEType string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %q audio: %v", e.MIMEType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
