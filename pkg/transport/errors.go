package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when an invalid peer address is provided.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNotStarted names an operation on a transport that was not started.
	// No transport here returns it: NewUDP starts its read loop itself.
	ErrNotStarted = errors.New("transport: not started")

	// ErrAlreadyStarted names a second start of a running transport. No
	// transport here has a Start method or returns it.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrSendFailed is returned when sending a datagram fails.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrMessageTooLarge is returned when a datagram exceeds the maximum frame size.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrQueueFull is the message the UDP read loop logs when the inbound
	// datagram queue is saturated and the oldest datagram had to be dropped
	// to admit a new one (transport I/O is polled through a bounded queue,
	// never awaited inline). It is not returned to callers.
	ErrQueueFull = errors.New("transport: inbound queue full, dropping oldest")
)
