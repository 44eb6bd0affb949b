package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// DefaultPort is ELARA's conventional UDP port for peer-to-peer diffusion.
// Unassigned; chosen only so the example node binary has a sensible default.
const DefaultPort = 4097

// MaxDatagramSize bounds a single read from the socket. It matches
// wire.MaxFrameSize so a single recvfrom always captures a whole frame.
const MaxDatagramSize = 1200

// inboundQueueCap bounds how many undelivered datagrams the read loop will
// buffer before dropping the oldest one. The tick loop polls Recv(); a slow
// consumer must not make the read loop block and pile up kernel buffers.
const inboundQueueCap = 256

// UDP is a net.PacketConn-backed Transport. The read loop decodes nothing;
// it only copies bytes off the wire and pushes them onto a bounded channel
// for the tick loop to poll.
type UDP struct {
	conn    net.PacketConn
	recvCh  chan Datagram
	closeCh chan struct{}
	wg      sync.WaitGroup
	log     logging.LeveledLogger

	mu      sync.RWMutex
	started bool
	closed  bool
}

// UDPConfig configures the UDP transport.
type UDPConfig struct {
	// Conn is an optional pre-existing PacketConn to use.
	// If nil, a new connection will be created using ListenAddr.
	Conn net.PacketConn

	// ListenAddr is the address to listen on (e.g., ":4097").
	// Ignored if Conn is provided.
	ListenAddr string

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewUDP creates a new UDP transport with the given configuration and starts
// its read loop.
func NewUDP(config UDPConfig) (*UDP, error) {
	u := &UDP{
		conn:    config.Conn,
		recvCh:  make(chan Datagram, inboundQueueCap),
		closeCh: make(chan struct{}),
	}

	if config.LoggerFactory != nil {
		u.log = config.LoggerFactory.NewLogger("transport-udp")
	}

	if u.conn == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0"
		}
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return nil, err
		}
		u.conn = conn
	}

	u.mu.Lock()
	u.started = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Infof("starting UDP transport on %s", u.conn.LocalAddr())
	}

	u.wg.Add(1)
	go u.readLoop()

	return u, nil
}

// Send implements Transport.
func (u *UDP) Send(data []byte, addr Address) error {
	u.mu.RLock()
	if u.closed {
		u.mu.RUnlock()
		return ErrClosed
	}
	u.mu.RUnlock()

	if !addr.IsValid() {
		return ErrInvalidAddress
	}
	if len(data) > MaxDatagramSize {
		return ErrMessageTooLarge
	}

	if u.log != nil {
		u.log.Debugf("sending %d bytes to %v", len(data), addr)
	}

	if _, err := u.conn.WriteTo(data, addr.Addr); err != nil {
		if u.log != nil {
			u.log.Warnf("send failed: %v", err)
		}
		return err
	}
	return nil
}

// Recv implements Transport.
func (u *UDP) Recv() <-chan Datagram {
	return u.recvCh
}

// LocalAddr implements Transport.
func (u *UDP) LocalAddr() Address {
	return NewUDPAddress(u.conn.LocalAddr())
}

// Close implements Transport.
func (u *UDP) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Info("stopping UDP transport")
	}

	close(u.closeCh)
	u.conn.SetReadDeadline(time.Now())
	u.conn.Close()
	u.wg.Wait()
	close(u.recvCh)

	return nil
}

func (u *UDP) readLoop() {
	defer u.wg.Done()

	buf := make([]byte, MaxDatagramSize)

	for {
		select {
		case <-u.closeCh:
			return
		default:
		}

		n, addr, err := u.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-u.closeCh:
				return
			default:
				if u.log != nil {
					u.log.Warnf("UDP read error: %v", err)
				}
				continue
			}
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		if u.log != nil {
			u.log.Debugf("received %d bytes from %v", n, addr)
		}

		dg := Datagram{Data: data, Peer: NewUDPAddress(addr)}
		select {
		case u.recvCh <- dg:
		default:
			// Queue saturated: drop the oldest to admit the newest, keeping
			// the loop non-blocking (I/O never stalls the tick).
			select {
			case <-u.recvCh:
			default:
			}
			select {
			case u.recvCh <- dg:
			default:
			}
			if u.log != nil {
				u.log.Warn(ErrQueueFull.Error())
			}
		}
	}
}
