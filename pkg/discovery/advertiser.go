package discovery

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultPort is the conventional ELARA diffusion port advertised alongside
// the service record (see transport.DefaultPort).
const DefaultPort = 4097

// MDNSServer is the interface for mDNS service registration, allowing
// dependency injection in tests.
type MDNSServer interface {
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// NodeTXT carries the presence attributes a node advertises alongside its
// service record: its identity, the wire protocol version it speaks, and a
// coarse degradation hint so a would-be peer can deprioritize a node that is
// already running in a degraded mode.
type NodeTXT struct {
	NodeID          uint64
	ProtocolVersion uint8
	DegradationHint uint8
}

// Encode renders the TXT attributes as "key=value" strings for DNS-SD.
func (t NodeTXT) Encode() []string {
	return []string{
		fmt.Sprintf("N=%016X", t.NodeID),
		fmt.Sprintf("V=%d", t.ProtocolVersion),
		fmt.Sprintf("D=%d", t.DegradationHint),
	}
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// HostName is not read by the Advertiser: the advertised instance name
	// is always a randomly generated one.
	HostName string

	// Port is the ELARA diffusion port to advertise. Defaults to DefaultPort.
	Port int

	// Interfaces specifies which network interfaces to advertise on.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory is the factory for creating mDNS servers. If nil, the
	// default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes a single ELARA node presence record to the network.
type Advertiser struct {
	config AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu           sync.RWMutex
	server       MDNSServer
	instanceName string
	closed       bool
}

// NewAdvertiser creates a new Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}

	a := &Advertiser{config: config, factory: factory}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("discovery")
	}
	return a, nil
}

// Start begins advertising this node's presence record.
func (a *Advertiser) Start(txt NodeTXT) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyStarted
	}

	instanceName, err := generateRandomInstanceName()
	if err != nil {
		return fmt.Errorf("advertiser: failed to generate instance name: %w", err)
	}

	txtRecords := txt.Encode()
	if a.log != nil {
		a.log.Debugf("registering mDNS service: instance=%s service=%s port=%d",
			instanceName, ServiceNode, a.config.Port)
		a.log.Tracef("TXT records: %v", txtRecords)
	}

	server, err := a.factory.Register(instanceName, ServiceNode, DefaultDomain, a.config.Port, txtRecords, a.config.Interfaces)
	if err != nil {
		return fmt.Errorf("advertiser: mDNS registration failed: %w", err)
	}

	if a.log != nil {
		a.log.Info("mDNS registration successful")
	}

	a.server = server
	a.instanceName = instanceName
	return nil
}

// Stop stops advertising the presence record.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server == nil {
		return ErrNotStarted
	}

	a.server.Shutdown()
	a.server = nil
	a.instanceName = ""
	return nil
}

// Close stops advertising (if active) and closes the advertiser.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.closed = true
	return nil
}

// IsAdvertising returns true if the presence record is currently published.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.server != nil
}

// InstanceName returns the instance name of the active advertisement, or the
// empty string if not advertising.
func (a *Advertiser) InstanceName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.instanceName
}

// generateRandomInstanceName generates a random 64-bit instance name,
// formatted as 16 uppercase hex characters.
func generateRandomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016X", binary.BigEndian.Uint64(buf[:])), nil
}
