package transport

import "errors"

var (
	// ErrTimeout reports that a command produced no completion event
	// within its deadline, across every permitted retry.
	ErrTimeout = errors.New("TIMEOUT")

	// ErrClosed reports use of a transport whose reader has exited or
	// whose port has been stopped.
	ErrClosed = errors.New("CLOSED")
)
