package invariant

import (
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/logging"
)

// Monitor continuously evaluates the five hard invariants against
// observations fed to it by the runtime tick loop, and maintains the
// degradation floor those observations currently imply. It never returns a
// hard error to its caller: every check either passes silently or raises
// the floor, consistent with Experience Degrades, Never Collapses.
type Monitor struct {
	mu  sync.Mutex
	log logging.LeveledLogger

	stageDeadline   time.Duration
	presenceWindow  time.Duration
	livenessTimeout time.Duration

	lastPeerSeen id.PerceptualTime
	havePeerSeen bool
	raisedFloor  id.DegradationLevel
	violations   []Violation
	nodeID       id.NodeId
}

// Params configures a Monitor's thresholds, sourced from config.Config.
type Params struct {
	StageDeadline   time.Duration
	PresenceWindow  time.Duration
	LivenessTimeout time.Duration
}

// NewMonitor returns a monitor for nodeID with the given thresholds.
func NewMonitor(nodeID id.NodeId, p Params, loggerFactory logging.LoggerFactory) *Monitor {
	return &Monitor{
		log:             loggerFactory.NewLogger("invariant"),
		stageDeadline:   p.StageDeadline,
		presenceWindow:  p.PresenceWindow,
		livenessTimeout: p.LivenessTimeout,
		nodeID:          nodeID,
	}
}

// ObserveStageDuration checks Reality Never Waits: stages 1-3 (advance
// clocks, ingest packets, decrypt & validate) must complete within the
// stage deadline. A breach raises the floor by exactly one level (up to
// L5) rather than blocking or retrying the tick.
func (m *Monitor) ObserveStageDuration(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stageDeadline > 0 && elapsed > m.stageDeadline {
		m.record(Violation{
			Invariant: RealityNeverWaits,
			Detail:    "stage 1-3 deadline exceeded",
		})
		if m.raisedFloor < id.L5LatentPresence {
			m.raiseLocked(m.raisedFloor + 1)
		}
	}
}

// ObservePresence checks Presence Over Packets: aggregate presence must
// remain above zero while any peer packet was seen within the presence
// window. peerSeenNow reports whether a peer packet arrived on this tick.
func (m *Monitor) ObservePresence(now id.PerceptualTime, aggregate float64, peerSeenNow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if peerSeenNow {
		m.lastPeerSeen = now
		m.havePeerSeen = true
	}

	recentPeer := m.havePeerSeen && time.Duration(now-m.lastPeerSeen)*time.Millisecond <= m.presenceWindow
	if recentPeer && aggregate <= 0 {
		m.record(Violation{
			Invariant: PresenceOverPackets,
			Detail:    "aggregate presence collapsed to zero while a peer was recently seen",
		})
		m.raiseLocked(2)
	}
}

// ObserveLiveness checks per-peer liveness: a peer silent for longer than
// LivenessTimeout is marked latent and the floor is raised. Reports whether
// the peer should be considered latent.
func (m *Monitor) ObserveLiveness(now id.PerceptualTime, lastSeen id.PerceptualTime) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	silent := time.Duration(now-lastSeen) * time.Millisecond
	if silent <= m.livenessTimeout {
		return false
	}
	m.record(Violation{
		Invariant: PresenceOverPackets,
		Detail:    "peer exceeded liveness timeout",
	})
	m.raiseLocked(1)
	return true
}

// RecordRewrittenFailure records that a path which would have returned a
// hard failure to the consumer was rewritten into a degradation transition
// instead, satisfying Experience Degrades, Never Collapses.
func (m *Monitor) RecordRewrittenFailure(detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Violation{Invariant: ExperienceDegradesNeverCollapses, Detail: detail})
}

// CheckProjectionPurity asserts Event Is Truth, State Is Projection: callers
// (pkg/state) must never mutate field content outside Apply. This is a
// documentation-level check with no caller in this module; ok is false
// only if a caller explicitly reports a bypass.
func (m *Monitor) CheckProjectionPurity(ok bool, detail string) {
	if ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Violation{Invariant: EventIsTruthStateIsProjection, Detail: detail})
	m.raiseLocked(1)
}

// CheckIdentityPersisted asserts Identity Survives Transport: the node's
// id.NodeId reported after a transport reinitialization must equal the one
// it started with.
func (m *Monitor) CheckIdentityPersisted(observed id.NodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if observed == m.nodeID {
		return
	}
	m.record(Violation{
		Invariant: IdentitySurvivesTransport,
		Detail:    "node_id changed across transport reinitialization",
	})
	m.raiseLocked(3)
}

// raiseLocked pushes the monitor-raised floor to at least minLevel. Callers
// must hold m.mu.
func (m *Monitor) raiseLocked(minLevel id.DegradationLevel) {
	m.raisedFloor = m.raisedFloor.Max(minLevel)
}

func (m *Monitor) record(v Violation) {
	m.violations = append(m.violations, v)
	m.log.Warnf("%s", v.Error())
}

// RaisedFloor returns the degradation floor the monitor currently holds
// open due to observed violations.
func (m *Monitor) RaisedFloor() id.DegradationLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raisedFloor
}

// Relax lowers the monitor-raised floor to level if level is below it. It
// is the only way the raised floor comes down; the runtime loop in
// pkg/node does not call it.
func (m *Monitor) Relax(level id.DegradationLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level < m.raisedFloor {
		m.raisedFloor = level
	}
}

// Violations returns a copy of every violation recorded so far, for
// diagnostics.
func (m *Monitor) Violations() []Violation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Violation, len(m.violations))
	copy(out, m.violations)
	return out
}
