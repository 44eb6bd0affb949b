package transport

// Datagram is a single inbound frame as received from the wire, paired with
// the peer address it arrived from. Higher layers (pkg/crypto, pkg/node) own
// parsing; the transport layer only moves bytes.
type Datagram struct {
	// Data contains the raw frame bytes, a copy owned by the receiver.
	Data []byte
	// Peer identifies the source of the datagram.
	Peer Address
}

// Transport is the boundary the runtime tick loop polls for inbound bytes
// and through which it sends outbound frames. Implementations never invoke
// consumer code directly (no callback dispatch): inbound datagrams are
// pushed onto a bounded channel that Recv exposes, so the tick loop can poll
// it alongside timers and other readiness sources in a single select:
// transport I/O is polled, never awaited inline.
type Transport interface {
	// Send transmits data to addr. Implementations must not block
	// indefinitely; a slow peer should not stall the caller's tick loop.
	Send(data []byte, addr Address) error

	// Recv returns the channel of inbound datagrams. The channel is closed
	// when the transport is closed.
	Recv() <-chan Datagram

	// LocalAddr returns the transport's local address.
	LocalAddr() Address

	// Close stops the transport and releases its resources. Recv's channel
	// is closed once any in-flight delivery goroutines have exited.
	Close() error
}
