// Package node wires the wire codec, crypto ratchet, dual-clock time
// engine, state reconciliation, diffusion routing and invariant monitor
// together into the runtime tick loop and the consumer-facing API a
// host application drives: opening sessions, submitting events, and
// subscribing to field/presence/degradation updates.
package node

import "errors"

// Runtime loop and consumer API errors.
var (
	// ErrSessionNotFound is returned by any session-scoped call addressing
	// an id.SessionId that was never opened or has since been closed.
	ErrSessionNotFound = errors.New("node: session not found")

	// ErrSessionExists is returned by SessionOpen when called twice with
	// the same id.SessionId without an intervening SessionClose.
	ErrSessionExists = errors.New("node: session already open")

	// ErrUnknownPeerAddress names a propagation decision for a peer with no
	// registered transport address. The tick loop does not return it: such
	// a send is skipped and the frame dropped, so the tick never blocks on
	// an unresolvable send.
	ErrUnknownPeerAddress = errors.New("node: no transport address registered for peer")

	// ErrMalformedEventPayload is returned by decodeEvent when a frame's
	// decrypted plaintext doesn't parse as a well-formed event.
	ErrMalformedEventPayload = errors.New("node: malformed event payload")

	// ErrNodeClosed names a call made after Close. No method returns it:
	// Node does not check whether it has been closed.
	ErrNodeClosed = errors.New("node: closed")
)
