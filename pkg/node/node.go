package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/config"
	"github.com/rafaelsistems/elara/pkg/crypto"
	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/invariant"
	"github.com/rafaelsistems/elara/pkg/logging"
	"github.com/rafaelsistems/elara/pkg/state"
	"github.com/rafaelsistems/elara/pkg/transport"
)

// Node runs the twelve-stage tick loop over one transport, on behalf of one
// stable identity, across however many sessions the host application opens.
// It is the single point a host application talks to: every other package
// in this module is a component the tick loop wires together internally.
type Node struct {
	identity *crypto.Identity
	selfID   id.NodeId
	cfg      config.Config

	transport     transport.Transport
	monitor       *invariant.Monitor
	log           logging.LeveledLogger
	loggerFactory logging.LoggerFactory
	metrics       *metrics

	mu       sync.RWMutex
	sessions map[id.SessionId]*session

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Options configures a Node beyond its identity, config and transport.
type Options struct {
	LoggerFactory logging.LoggerFactory
	// Metrics, if true, registers the node's Prometheus collectors against
	// the default registry. See pkg/node/metrics.go.
	Metrics bool
}

// New constructs a Node. cfg is completed with WithDefaults before use.
func New(identity *crypto.Identity, cfg config.Config, tr transport.Transport, opts Options) *Node {
	cfg = cfg.WithDefaults()
	loggerFactory := opts.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewNopFactory()
	}

	selfID := identity.NodeID()
	monitorParams := invariant.Params{
		StageDeadline:   cfg.TickPeriod,
		PresenceWindow:  cfg.PresenceWindow,
		LivenessTimeout: cfg.LivenessTimeout,
	}

	n := &Node{
		identity:      identity,
		selfID:        selfID,
		cfg:           cfg,
		transport:     tr,
		monitor:       invariant.NewMonitor(selfID, monitorParams, loggerFactory),
		log:           loggerFactory.NewLogger("node"),
		loggerFactory: loggerFactory,
		sessions:      make(map[id.SessionId]*session),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	if opts.Metrics {
		n.metrics = newMetrics()
	}
	return n
}

// NodeID returns this node's stable, key-derived identifier.
func (n *Node) NodeID() id.NodeId { return n.selfID }

// Start launches the tick loop in a background goroutine. Start must be
// called at most once per Node.
func (n *Node) Start() {
	n.startOnce.Do(func() { go n.run() })
}

// Close stops the tick loop and closes the underlying transport, blocking
// until the loop goroutine has exited. On a Node that was never started,
// Close does not wait, and a later Start does nothing.
func (n *Node) Close() error {
	n.stopOnce.Do(func() { close(n.stopCh) })
	n.startOnce.Do(func() { close(n.doneCh) })
	<-n.doneCh
	return n.transport.Close()
}

// SessionOpen admits a new key-sharing group this node participates in,
// deriving its ratchet from rootKey. Returns ErrSessionExists if sessionID
// is already open.
func (n *Node) SessionOpen(sessionID id.SessionId, rootKey []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.sessions[sessionID]; ok {
		return ErrSessionExists
	}

	processor, err := crypto.NewSecureFrameProcessor(
		uint64(sessionID), uint64(n.selfID), rootKey,
		n.cfg.RatchetFramesPerEpoch, n.cfg.RatchetSecondsPerEpoch, n.cfg.MaxFrameSize,
	)
	if err != nil {
		return fmt.Errorf("node: open session: %w", err)
	}

	cfg := sessionConfig{
		fieldConfig: state.FieldConfig{
			SizeCap:       n.cfg.FieldSizeCap,
			DepQueueCap:   n.cfg.DepQueueCap,
			PredictionCap: n.cfg.PredictionBufferCap,
		},
		correctionHorizonK: n.cfg.CorrectionHorizonK,
		predictionHorizon:  n.cfg.PredictionHorizon,
	}
	n.sessions[sessionID] = newSession(sessionID, n.selfID, processor, cfg, n.loggerFactory)
	n.log.Infof("session opened: %s", fmt.Sprint(sessionID))
	return nil
}

// SessionClose discards all state for sessionID: its fields, swarm view and
// pending subscriptions. Subscriber channels are closed.
func (n *Node) SessionClose(sessionID id.SessionId) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(n.sessions, sessionID)
	s.fieldSubsMu.Lock()
	for _, b := range s.fieldSubs {
		b.closeAll()
	}
	s.fieldSubsMu.Unlock()
	s.presence.closeAll()
	s.degradation.closeAll()
	return nil
}

func (n *Node) session(sessionID id.SessionId) (*session, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s, ok := n.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// AddPeer joins peer to sessionID's swarm and registers the transport
// address this node reaches it at.
func (n *Node) AddPeer(sessionID id.SessionId, peer id.NodeId, addr transport.Address) error {
	s, err := n.session(sessionID)
	if err != nil {
		return err
	}
	s.setPeerAddr(peer, addr)
	s.router.Join(peer)
	return nil
}

// RemovePeer removes peer from sessionID's swarm.
func (n *Node) RemovePeer(sessionID id.SessionId, peer id.NodeId) error {
	s, err := n.session(sessionID)
	if err != nil {
		return err
	}
	s.router.Leave(peer)
	return nil
}

// GrantAuthority grants peer the right to mutate target within sessionID.
func (n *Node) GrantAuthority(sessionID id.SessionId, target id.StateId, grant state.AuthorityGrant) error {
	s, err := n.session(sessionID)
	if err != nil {
		return err
	}
	s.fields.Get(target).Authority.Grant(grant)
	s.router.Authority.SetAuthority(target, grant.Node)
	return nil
}

// SubmitEvent admits a locally-originated mutation of target within
// sessionID, stamping it with this node's identity, the session's current
// state-clock time, and the target field's current version vector. The
// event is queued for the next tick's collection stage rather than applied
// synchronously: SubmitEvent never blocks on the network or the tick loop.
func (n *Node) SubmitEvent(sessionID id.SessionId, target id.StateId, mutation state.MutationOp, entropyHint uint32) (id.EventId, error) {
	s, err := n.session(sessionID)
	if err != nil {
		return id.EventId{}, err
	}

	seq := s.nextSeq()
	eventID := id.EventId{Source: n.selfID, Seq: seq}
	event := state.Event{
		ID:          eventID,
		Source:      n.selfID,
		TargetState: target,
		VersionRef:  s.fields.Get(target).Version(),
		Mutation:    mutation,
		TimeIntent:  s.timeline.State.Now(),
		EntropyHint: entropyHint,
	}
	s.enqueueLocal(event)
	return eventID, nil
}

// SubscribeField streams every projection of target within sessionID
// produced from here on: one snapshot per tick while the field exists,
// whether or not it changed. The returned function unsubscribes and
// closes the channel.
func (n *Node) SubscribeField(sessionID id.SessionId, target id.StateId) (<-chan state.FieldSnapshot, func(), error) {
	s, err := n.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsub := s.fieldBroadcaster(target).subscribe(fieldSubscriberBuffer)
	return ch, unsub, nil
}

// SubscribePresence streams this node's aggregate presence signal for
// sessionID, recomputed once per tick.
func (n *Node) SubscribePresence(sessionID id.SessionId) (<-chan id.PresenceVector, func(), error) {
	s, err := n.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsub := s.presence.subscribe(signalSubscriberBuffer)
	return ch, unsub, nil
}

// SubscribeDegradation streams this node's overall degradation level for
// sessionID whenever it changes.
func (n *Node) SubscribeDegradation(sessionID id.SessionId) (<-chan id.DegradationLevel, func(), error) {
	s, err := n.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsub := s.degradation.subscribe(signalSubscriberBuffer)
	return ch, unsub, nil
}

// run is the background goroutine driving one tick every cfg.TickPeriod
// until Close is called.
func (n *Node) run() {
	defer close(n.doneCh)

	ticker := time.NewTicker(n.cfg.TickPeriod)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-n.stopCh:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			n.tick(now, dt)
		}
	}
}
