package discovery

import "errors"

// Package-level sentinel errors for discovery operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed component.
	ErrClosed = errors.New("discovery: closed")

	// ErrAlreadyStarted is returned when starting an already-started service.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrNotStarted is returned when stopping a service that was not started.
	ErrNotStarted = errors.New("discovery: not started")

	// The five errors below name further failure cases; no function in
	// this package returns them.

	// ErrInvalidServiceType names an invalid or unknown service type.
	ErrInvalidServiceType = errors.New("discovery: invalid service type")

	// ErrInvalidHostName names an empty or invalid host name.
	ErrInvalidHostName = errors.New("discovery: invalid host name")

	// ErrInvalidPort names a port number out of range.
	ErrInvalidPort = errors.New("discovery: invalid port (must be 1-65535)")

	// ErrServiceNotFound names a requested service that was not found.
	ErrServiceNotFound = errors.New("discovery: service not found")

	// ErrTimeout names an operation that timed out.
	ErrTimeout = errors.New("discovery: operation timed out")
)
