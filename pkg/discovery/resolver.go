package discovery

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultBrowseTimeout is the default timeout for browse operations.
const DefaultBrowseTimeout = 10 * time.Second

// DefaultLookupTimeout is the default timeout for lookup operations.
const DefaultLookupTimeout = 5 * time.Second

// ResolvedNode describes a discovered ELARA node presence record.
type ResolvedNode struct {
	InstanceName string
	HostName     string
	Port         int
	IPs          []net.IP
	NodeID       uint64
	ProtocolVersion uint8
	DegradationHint uint8
}

// PreferredIP returns the first resolved address, or nil if none.
func (r *ResolvedNode) PreferredIP() net.IP {
	if len(r.IPs) > 0 {
		return r.IPs[0]
	}
	return nil
}

// MDNSResolver is the interface for mDNS service resolution, allowing
// dependency injection in tests.
type MDNSResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

// ResolverConfig holds configuration for the Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation. If nil,
	// the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations, applied only when
	// the caller's context carries no deadline of its own.
	BrowseTimeout time.Duration
}

// Resolver discovers ELARA node presence records via mDNS.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
}

// NewResolver creates a new Resolver with the given configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}
	return &Resolver{config: config, resolver: resolver}, nil
}

// Browse discovers ELARA nodes on the network. The returned channel is
// closed when the context is cancelled or the browse timeout expires.
func (r *Resolver) Browse(ctx context.Context) (<-chan ResolvedNode, error) {
	results := make(chan ResolvedNode)
	entries := make(chan *zeroconf.ServiceEntry)

	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, r.config.BrowseTimeout)
	}

	go func() {
		defer cancel()
		defer close(results)

		go func() {
			defer close(entries)
			r.resolver.Browse(ctx, ServiceNode, DefaultDomain, entries)
		}()

		for entry := range entries {
			select {
			case results <- entryToResolvedNode(entry):
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

func entryToResolvedNode(entry *zeroconf.ServiceEntry) ResolvedNode {
	var ips []net.IP
	ips = append(ips, entry.AddrIPv6...)
	ips = append(ips, entry.AddrIPv4...)

	node := ResolvedNode{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          ips,
	}

	for _, kv := range entry.Text {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "N":
			if id, err := strconv.ParseUint(v, 16, 64); err == nil {
				node.NodeID = id
			}
		case "V":
			if ver, err := strconv.ParseUint(v, 10, 8); err == nil {
				node.ProtocolVersion = uint8(ver)
			}
		case "D":
			if hint, err := strconv.ParseUint(v, 10, 8); err == nil {
				node.DegradationHint = uint8(hint)
			}
		}
	}

	return node
}
