package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned, without any network I/O, when a guarded
// operation is attempted while no credential is held.
var ErrUnauthenticated = errors.New("no session credential")

// TransportError means no response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a response arrived but its body was not the expected JSON.
type DecodeError struct {
	Op     string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DeclaredError is a well-formed {message} payload from the server. The client
// never returns it itself; callers obtain it from Response.Declared.
type DeclaredError struct {
	Status  int
	Message string
}

func (e *DeclaredError) Error() string {
	return e.Message
}
