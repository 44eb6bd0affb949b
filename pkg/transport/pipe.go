package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures network behavior simulation.
// Use this to test protocol behavior under adverse network conditions,
// exercising the degradation ladder.
type NetworkCondition struct {
	// DropRate is the probability of dropping a packet (0.0 - 1.0).
	DropRate float64

	// DelayMin is the minimum delay to add to each packet.
	DelayMin time.Duration

	// DelayMax is the maximum delay to add to each packet.
	// Actual delay is uniformly distributed between DelayMin and DelayMax.
	DelayMax time.Duration

	// DuplicateRate is the probability of duplicating a packet (0.0 - 1.0).
	DuplicateRate float64

	// ReorderRate is the probability of reordering packets (0.0 - 1.0).
	// PipeTransport.Send does not apply it: packets are not reordered.
	ReorderRate float64

	// ReorderDelay is the delay for reordered packets. PipeTransport.Send
	// does not apply it.
	ReorderDelay time.Duration
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables automatic datagram delivery in a background goroutine.
	// Default: true
	AutoProcess bool

	// ProcessInterval is how often the auto-processor checks for packets.
	// Default: 1ms
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe provides bidirectional in-memory packet communication between two
// endpoints. It wraps pion's test.Bridge and adds network condition
// simulation, used by PipeTransport to give tests a chaos-injectable,
// deterministic replacement for a real socket.
type Pipe struct {
	bridge *test.Bridge

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a new bidirectional pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig creates a new pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}

	if config.ProcessInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	if p.autoProcess {
		p.startAutoProcess()
	}

	return p
}

func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess enables or disables automatic datagram delivery. When
// disabled, call Tick or Process for deterministic control over delivery
// order in tests.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}
	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// AutoProcess returns whether auto-processing is enabled.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition configures network condition simulation, applied to packets
// in both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the current network condition configuration.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn0 returns the connection for endpoint 0.
func (p *Pipe) Conn0() net.Conn { return p.bridge.GetConn0() }

// Conn1 returns the connection for endpoint 1.
func (p *Pipe) Conn1() net.Conn { return p.bridge.GetConn1() }

// Tick delivers one packet in each direction (if available). Returns the
// number of packets delivered (0, 1, or 2).
func (p *Pipe) Tick() int { return p.bridge.Tick() }

// Process delivers all queued packets. Returns the number of packets
// delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close closes both endpoints of the pipe and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	var errs []error
	if err := p.bridge.GetConn0().Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.bridge.GetConn1().Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// PipeAddr implements net.Addr for pipe endpoints.
type PipeAddr struct {
	ID   int // Endpoint ID (0 or 1)
	Port int // Logical port number
}

// Network returns "pipe".
func (a PipeAddr) Network() string { return "pipe" }

// String returns a string representation of the address.
func (a PipeAddr) String() string { return fmt.Sprintf("pipe:%d:%d", a.ID, a.Port) }

// PipeTransport implements Transport over one endpoint of a Pipe. It applies
// the pipe's NetworkCondition on send and pushes received datagrams onto a
// bounded channel for the tick loop to poll, exactly like UDP.
type PipeTransport struct {
	pipe    *Pipe
	conn    net.Conn
	localID int
	port    int
	peer    Address

	recvCh  chan Datagram
	closeCh chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPipeTransportPair creates two PipeTransport endpoints wired together
// through a fresh Pipe with the default configuration.
func NewPipeTransportPair(port int) (*PipeTransport, *PipeTransport) {
	return NewPipeTransportPairWithConfig(port, DefaultPipeConfig())
}

// NewPipeTransportPairWithConfig creates two PipeTransport endpoints wired
// together through a Pipe using the given configuration. Use
// PipeConfig{AutoProcess: false} plus manual Pipe().Tick()/Process() calls
// for deterministic delivery-order tests.
func NewPipeTransportPairWithConfig(port int, config PipeConfig) (*PipeTransport, *PipeTransport) {
	pipe := NewPipeWithConfig(config)

	t0 := newPipeTransport(pipe, 0, port)
	t1 := newPipeTransport(pipe, 1, port)
	t0.peer = NewPipeAddress(PipeAddr{ID: 1, Port: port})
	t1.peer = NewPipeAddress(PipeAddr{ID: 0, Port: port})

	return t0, t1
}

func newPipeTransport(pipe *Pipe, localID, port int) *PipeTransport {
	var conn net.Conn
	if localID == 0 {
		conn = pipe.Conn0()
	} else {
		conn = pipe.Conn1()
	}

	t := &PipeTransport{
		pipe:    pipe,
		conn:    conn,
		localID: localID,
		port:    port,
		recvCh:  make(chan Datagram, inboundQueueCap),
		closeCh: make(chan struct{}),
	}

	t.wg.Add(1)
	go t.readLoop()

	return t
}

// Pipe returns the underlying pipe for condition configuration and manual
// delivery control.
func (t *PipeTransport) Pipe() *Pipe { return t.pipe }

// Send implements Transport, applying the pipe's configured NetworkCondition
// (drop, delay, duplicate) before writing.
func (t *PipeTransport) Send(data []byte, _ Address) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	cond := t.pipe.Condition()
	rng := t.pipe.rng

	if cond.DropRate > 0 && rng.Float64() < cond.DropRate {
		return nil // silently dropped, as a lossy real link would
	}

	if cond.DelayMax > 0 {
		delay := cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += time.Duration(rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if cond.DuplicateRate > 0 && rng.Float64() < cond.DuplicateRate {
		if _, err := t.conn.Write(data); err != nil {
			return err
		}
	}

	if _, err := t.conn.Write(data); err != nil {
		return ErrSendFailed
	}
	return nil
}

// Recv implements Transport.
func (t *PipeTransport) Recv() <-chan Datagram { return t.recvCh }

// LocalAddr implements Transport.
func (t *PipeTransport) LocalAddr() Address {
	return NewPipeAddress(PipeAddr{ID: t.localID, Port: t.port})
}

// Close implements Transport.
func (t *PipeTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.closeCh)
	t.conn.Close()
	t.wg.Wait()
	close(t.recvCh)
	return nil
}

func (t *PipeTransport) readLoop() {
	defer t.wg.Done()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
				return
			}
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		dg := Datagram{Data: data, Peer: t.peer}
		select {
		case t.recvCh <- dg:
		default:
			select {
			case <-t.recvCh:
			default:
			}
			select {
			case t.recvCh <- dg:
			default:
			}
		}
	}
}

// Verify PipeTransport implements Transport.
var _ Transport = (*PipeTransport)(nil)
