package id

import "errors"

// Identifier and vector errors.
var (
	// ErrInvalidPresenceComponent is returned when a PresenceVector
	// component is outside [0,1].
	ErrInvalidPresenceComponent = errors.New("id: presence component out of range")
)
