package node

import (
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/clock"
	"github.com/rafaelsistems/elara/pkg/crypto"
	"github.com/rafaelsistems/elara/pkg/diffusion"
	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/logging"
	"github.com/rafaelsistems/elara/pkg/state"
	"github.com/rafaelsistems/elara/pkg/transport"
)

// localOutboxCap bounds how many locally-submitted events a session will
// hold awaiting their next tick's collection stage. Overflow drops the
// oldest pending submission: a producer that outruns the tick loop loses
// its oldest unsent event rather than blocking SubmitEvent.
const localOutboxCap = 256

// fieldSubscriberBuffer and signalSubscriberBuffer bound per-subscriber
// channel depth for field snapshots and presence/degradation signals
// respectively.
const (
	fieldSubscriberBuffer  = 8
	signalSubscriberBuffer = 4
)

// session bundles everything scoped to one key-sharing group: the ratchet
// and replay state, the fields this node holds within it, the swarm's
// routing view, the session's shared (elastic) time domain, and the
// subscriber registries the runtime loop feeds on every tick.
type session struct {
	id        id.SessionId
	processor *crypto.SecureFrameProcessor
	fields    *state.FieldStore
	router    *diffusion.Router
	timeline  *clock.Engine

	mu           sync.Mutex
	peerAddrs    map[id.NodeId]transport.Address
	outbox       []state.Event
	localSeq     uint32
	lastSeen     map[id.NodeId]id.PerceptualTime
	peerVersions map[id.NodeId]id.VersionVector

	fieldSubsMu sync.Mutex
	fieldSubs   map[id.StateId]*broadcaster[state.FieldSnapshot]

	presence        *broadcaster[id.PresenceVector]
	degradation     *broadcaster[id.DegradationLevel]
	lastDegradation id.DegradationLevel
}

func newSession(sessionID id.SessionId, self id.NodeId, processor *crypto.SecureFrameProcessor, cfg sessionConfig, loggerFactory logging.LoggerFactory) *session {
	return &session{
		id:          sessionID,
		processor:   processor,
		fields:      state.NewFieldStore(cfg.fieldConfig),
		router:      diffusion.NewRouter(self, loggerFactory),
		timeline:    clock.NewEngine(cfg.correctionHorizonK, cfg.predictionHorizon),
		peerAddrs:    make(map[id.NodeId]transport.Address),
		lastSeen:     make(map[id.NodeId]id.PerceptualTime),
		peerVersions: make(map[id.NodeId]id.VersionVector),
		fieldSubs:    make(map[id.StateId]*broadcaster[state.FieldSnapshot]),
		presence:     newBroadcaster[id.PresenceVector](),
		degradation:  newBroadcaster[id.DegradationLevel](),
	}
}

// sessionConfig carries the subset of config.Config a session's components
// need at construction.
type sessionConfig struct {
	fieldConfig        state.FieldConfig
	correctionHorizonK float64
	predictionHorizon  time.Duration
}

// nextSeq allocates the next outbound EventId.Seq for an event this node
// originates in this session. ELARA's sequence space is per (source,
// session): the same counter ordering VersionVector already assumes.
func (s *session) nextSeq() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localSeq++
	return s.localSeq
}

// enqueueLocal admits event to the session's outbound queue, dropping the
// oldest queued event if the queue is already full.
func (s *session) enqueueLocal(event state.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outbox) >= localOutboxCap {
		s.outbox = s.outbox[1:]
	}
	s.outbox = append(s.outbox, event)
}

// drainLocal removes and returns every event currently queued.
func (s *session) drainLocal() []state.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outbox
	s.outbox = nil
	return out
}

// setPeerAddr registers (or updates) the transport address used to reach
// peer within this session.
func (s *session) setPeerAddr(peer id.NodeId, addr transport.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerAddrs[peer] = addr
}

// peerAddr resolves peer's transport address, if known.
func (s *session) peerAddr(peer id.NodeId) (transport.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr, ok := s.peerAddrs[peer]
	return addr, ok
}

// fieldBroadcaster returns (creating if needed) the broadcaster for state.
func (s *session) fieldBroadcaster(stateID id.StateId) *broadcaster[state.FieldSnapshot] {
	s.fieldSubsMu.Lock()
	defer s.fieldSubsMu.Unlock()
	b, ok := s.fieldSubs[stateID]
	if !ok {
		b = newBroadcaster[state.FieldSnapshot]()
		s.fieldSubs[stateID] = b
	}
	return b
}

// publishFields projects every field this session holds and fans each
// snapshot out to that state's subscribers.
func (s *session) publishFields(now id.StateTime) {
	s.fieldSubsMu.Lock()
	ids := make([]id.StateId, 0, len(s.fieldSubs))
	for sid := range s.fieldSubs {
		ids = append(ids, sid)
	}
	s.fieldSubsMu.Unlock()

	for _, sid := range ids {
		f, ok := s.fields.Lookup(sid)
		if !ok {
			continue
		}
		s.fieldBroadcaster(sid).publish(f.Project(now))
	}
}

// markSeen records that a frame from peer arrived at perceptual time now,
// feeding the liveness side of Presence Over Packets.
func (s *session) markSeen(peer id.NodeId, now id.PerceptualTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[peer] = now
}

// seenWithin reports whether peer was last seen within window of now.
func (s *session) seenWithin(peer id.NodeId, now id.PerceptualTime, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastSeen[peer]
	if !ok {
		return false
	}
	return time.Duration(now-last)*time.Millisecond <= window
}

// peers returns the current set of registered peer ids.
func (s *session) peers() []id.NodeId {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]id.NodeId, 0, len(s.peerAddrs))
	for p := range s.peerAddrs {
		out = append(out, p)
	}
	return out
}

// recordPeerVersion folds an observed event's declared version vector into
// the running record of what peer has acknowledged, used as the divergence
// floor's approximation of each peer's replica state.
func (s *session) recordPeerVersion(peer id.NodeId, vv id.VersionVector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.peerVersions[peer]
	if !ok {
		s.peerVersions[peer] = vv
		return
	}
	s.peerVersions[peer] = existing.Merge(vv)
}

// networkFloor derives a degradation floor from the worst observed loss
// rate among this session's registered peers.
func (s *session) networkFloor() id.DegradationLevel {
	floor := id.L0FullPerception
	for _, peer := range s.peers() {
		loss := s.timeline.Network.LossRate(peer)
		switch {
		case loss > 0.5:
			floor = floor.Max(id.L3SymbolicPresence)
		case loss > 0.3:
			floor = floor.Max(id.L2FragmentedPerception)
		case loss > 0.1:
			floor = floor.Max(id.L1DistortedPerception)
		}
	}
	return floor
}

// worstDivergence computes the highest divergence metric across every
// field this session holds, against the most recent version vector
// observed from each peer.
func (s *session) worstDivergence() state.DivergenceMetric {
	s.mu.Lock()
	peerVersions := make([]id.VersionVector, 0, len(s.peerVersions))
	for _, vv := range s.peerVersions {
		peerVersions = append(peerVersions, vv)
	}
	s.mu.Unlock()

	now := s.timeline.State.Now()
	var worst state.DivergenceMetric
	for _, sid := range s.fields.Ids() {
		f, ok := s.fields.Lookup(sid)
		if !ok {
			continue
		}
		if m := f.Divergence(now, peerVersions); m > worst {
			worst = m
		}
	}
	return worst
}

// meanRTT averages the network model's RTT estimate across every registered
// peer with at least one sample, or zero if none has reported one yet.
func (s *session) meanRTT() time.Duration {
	peers := s.peers()
	if len(peers) == 0 {
		return 0
	}
	var sum time.Duration
	var count int
	for _, p := range peers {
		if rtt := s.timeline.Network.RTTMean(p); rtt > 0 {
			sum += rtt
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / time.Duration(count)
}

// peersWithHistory reports how many registered peers this session has
// recorded any version-vector history for.
func (s *session) peersWithHistory() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peerVersions)
}

// divergenceFloor derives a degradation floor from worstDivergence.
func (s *session) divergenceFloor() id.DegradationLevel {
	worst := s.worstDivergence()
	switch {
	case worst >= 0.75:
		return id.L3SymbolicPresence
	case worst >= 0.5:
		return id.L2FragmentedPerception
	case worst >= 0.25:
		return id.L1DistortedPerception
	default:
		return id.L0FullPerception
	}
}
