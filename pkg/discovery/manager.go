package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// ManagerConfig holds configuration for the discovery Manager.
type ManagerConfig struct {
	// HostName is passed on to AdvertiserConfig.HostName, which the
	// Advertiser does not read: the instance name is always random.
	HostName string

	// Port is the diffusion port to advertise. Defaults to DefaultPort.
	Port int

	// Interfaces specifies which network interfaces to use. If nil, all
	// interfaces are used.
	Interfaces []net.Interface

	// BrowseTimeout is the default timeout for browse operations. If zero,
	// DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration

	// ServerFactory is the factory for creating mDNS servers (for testing).
	ServerFactory MDNSServerFactory

	// MDNSResolver is the mDNS resolver implementation (for testing).
	MDNSResolver MDNSResolver

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Manager coordinates presence advertising and peer discovery for a node.
type Manager struct {
	advertiser *Advertiser
	resolver   *Resolver

	mu     sync.RWMutex
	closed bool
}

// NewManager creates a new discovery Manager with the given configuration.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Port <= 0 {
		config.Port = DefaultPort
	}
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}

	advertiser, err := NewAdvertiser(AdvertiserConfig{
		HostName:      config.HostName,
		Port:          config.Port,
		Interfaces:    config.Interfaces,
		ServerFactory: config.ServerFactory,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	resolver, err := NewResolver(ResolverConfig{
		MDNSResolver:  config.MDNSResolver,
		BrowseTimeout: config.BrowseTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{advertiser: advertiser, resolver: resolver}, nil
}

// Close stops advertising and releases resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return m.advertiser.Close()
}

// StartAdvertising begins publishing this node's presence record.
func (m *Manager) StartAdvertising(txt NodeTXT) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	m.mu.RUnlock()

	return m.advertiser.Start(txt)
}

// StopAdvertising stops publishing the presence record.
func (m *Manager) StopAdvertising() error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	m.mu.RUnlock()

	return m.advertiser.Stop()
}

// IsAdvertising returns true if the presence record is currently published.
func (m *Manager) IsAdvertising() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false
	}
	return m.advertiser.IsAdvertising()
}

// Browse discovers other ELARA nodes on the network.
func (m *Manager) Browse(ctx context.Context) (<-chan ResolvedNode, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	m.mu.RUnlock()

	return m.resolver.Browse(ctx)
}

// Advertiser returns the underlying Advertiser for advanced usage.
func (m *Manager) Advertiser() *Advertiser { return m.advertiser }

// Resolver returns the underlying Resolver for advanced usage.
func (m *Manager) Resolver() *Resolver { return m.resolver }
