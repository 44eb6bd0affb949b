package state

import "errors"

// State reconciliation errors.
var (
	// ErrUnauthorized is returned when an event's source holds no valid
	// AuthorityGrant for the target state at the event's time_intent.
	ErrUnauthorized = errors.New("state: unauthorized")

	// ErrMissingDependency is returned when an event is buffered pending a
	// causal dependency and the dependency queue is already at capacity.
	ErrMissingDependency = errors.New("state: dependency queue full")

	// ErrStateBoundsExceeded is returned when applying an event would push
	// a field's representation size over its cap.
	ErrStateBoundsExceeded = errors.New("state: bounds exceeded")

	// ErrEntropyExceeded is returned when applying an event would push a
	// field's entropy counter over its configured budget.
	ErrEntropyExceeded = errors.New("state: entropy budget exceeded")

	// ErrFieldNotFound is returned by operations addressing a StateId with
	// no corresponding field.
	ErrFieldNotFound = errors.New("state: field not found")
)
