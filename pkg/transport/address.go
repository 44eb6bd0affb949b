package transport

import (
	"fmt"
	"net"
)

// Address identifies a remote peer by network address and transport kind.
type Address struct {
	// Addr is the network address of the peer.
	Addr net.Addr
	// Kind identifies the carrier (UDP, in-memory pipe, ...).
	Kind Kind
}

// String returns a human-readable representation of the address.
func (a Address) String() string {
	if a.Addr == nil {
		return fmt.Sprintf("%s:<nil>", a.Kind)
	}
	return fmt.Sprintf("%s:%s", a.Kind, a.Addr.String())
}

// IsValid returns true if the address has a known kind and a concrete net.Addr.
func (a Address) IsValid() bool {
	return a.Kind.IsValid() && a.Addr != nil
}

// NewUDPAddress wraps a net.Addr as a UDP-kind peer address.
func NewUDPAddress(addr net.Addr) Address {
	return Address{Addr: addr, Kind: KindUDP}
}

// NewPipeAddress wraps a net.Addr as a pipe-kind peer address.
func NewPipeAddress(addr net.Addr) Address {
	return Address{Addr: addr, Kind: KindPipe}
}

// UDPAddrFromString resolves a "host:port" string into a UDP peer address.
func UDPAddrFromString(addr string) (Address, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Address{}, err
	}
	return NewUDPAddress(udpAddr), nil
}
