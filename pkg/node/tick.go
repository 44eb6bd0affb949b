package node

import (
	"time"

	"github.com/rafaelsistems/elara/pkg/clock"
	"github.com/rafaelsistems/elara/pkg/id"
	"github.com/rafaelsistems/elara/pkg/invariant"
	"github.com/rafaelsistems/elara/pkg/state"
	"github.com/rafaelsistems/elara/pkg/transport"
	"github.com/rafaelsistems/elara/pkg/wire"
)

// maxDatagramsPerTick bounds how many inbound datagrams a single tick will
// drain from the transport. A burst beyond this is left queued for the next
// tick rather than letting one tick's stage 2-3 work grow unbounded.
const maxDatagramsPerTick = 256

// inboundFrame is a datagram resolved to the session it belongs to, still
// needing decryption.
type inboundFrame struct {
	sess *session
	peer id.NodeId
	data []byte
}

// classifiedEvent is a decoded, time-classified event awaiting reconciliation.
type classifiedEvent struct {
	sess  *session
	peer  id.NodeId
	event state.Event
}

// tick runs the full twelve-stage loop once. now is the wall-clock instant
// the tick fired; dt is the elapsed time since the previous tick.
func (n *Node) tick(now time.Time, dt time.Duration) {
	tickStart := time.Now()

	n.mu.RLock()
	sessions := make([]*session, 0, len(n.sessions))
	for _, s := range n.sessions {
		sessions = append(sessions, s)
	}
	n.mu.RUnlock()

	stage123Start := time.Now()
	n.advanceClocks(sessions, now, dt) // 1. advance clocks
	datagrams := n.ingestPackets()     // 2. ingest packets
	decrypted := n.decryptAndValidate(datagrams) // 3. decrypt & validate
	stage123Elapsed := time.Since(stage123Start)
	n.monitor.ObserveStageDuration(stage123Elapsed)
	if n.metrics != nil && stage123Elapsed > n.cfg.TickPeriod {
		n.metrics.observeOverrun()
	}

	classified := n.classifyEvents(decrypted) // 4. classify events (folds in 5: update time model)
	n.reconcileState(classified)               // 6. reconcile state

	for _, s := range sessions {
		s.fields.ActivatePredictions(s.timeline.State.Now()) // 7. generate predictions
	}

	n.project(sessions) // 8. project

	locals := n.collectLocalEvents(sessions) // 9. collect local events
	signed := n.authorizeAndSign(locals)     // 10. authorize & sign
	packets := n.buildPackets(signed)         // 11. build packets
	n.scheduleTransmission(packets)           // 12. schedule transmission

	n.updateDegradation(sessions)

	if n.metrics != nil {
		n.metrics.observeTick(time.Since(tickStart))
	}
}

// advanceClocks steps every session's perceptual and state clocks by dt.
func (n *Node) advanceClocks(sessions []*session, now time.Time, dt time.Duration) {
	for _, s := range sessions {
		s.timeline.Perceptual.Tick(now)
		s.timeline.State.Advance(dt)
	}
}

// ingestPackets drains whatever datagrams the transport has queued, up to
// maxDatagramsPerTick, without blocking.
func (n *Node) ingestPackets() []transport.Datagram {
	out := make([]transport.Datagram, 0, maxDatagramsPerTick)
	ch := n.transport.Recv()
	for i := 0; i < maxDatagramsPerTick; i++ {
		select {
		case dg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, dg)
		default:
			return out
		}
	}
	return out
}

// decryptAndValidate resolves each datagram to its session by the header's
// advertised SessionID, opens the frame, and marks the sender as recently
// seen. Frames for unknown sessions or that fail to open are dropped: a
// decrypt failure is reported to the invariant monitor as a rewritten
// failure rather than surfaced to the caller, since Experience Degrades,
// Never Collapses.
func (n *Node) decryptAndValidate(datagrams []transport.Datagram) []inboundFrame {
	n.mu.RLock()
	byID := make(map[id.SessionId]*session, len(n.sessions))
	for sid, s := range n.sessions {
		byID[sid] = s
	}
	n.mu.RUnlock()

	out := make([]inboundFrame, 0, len(datagrams))
	for _, dg := range datagrams {
		header, err := wire.DecodeHeader(dg.Data)
		if err != nil {
			n.monitor.RecordRewrittenFailure("dropped frame: invalid header")
			continue
		}
		s, ok := byID[id.SessionId(header.SessionID)]
		if !ok {
			n.monitor.RecordRewrittenFailure("dropped frame: unknown session")
			continue
		}

		peer := id.NodeId(header.NodeID)
		s.markSeen(peer, s.timeline.Perceptual.Now())

		decoded, err := s.processor.DecryptFrame(dg.Data)
		if err != nil {
			n.monitor.RecordRewrittenFailure("dropped frame: decrypt failed")
			continue
		}
		out = append(out, inboundFrame{sess: s, peer: peer, data: decoded.Plaintext})
	}
	return out
}

// classifyEvents decodes each frame's plaintext as an event and buckets it
// against the reality window. Past events outside the correction horizon
// and future events outside the prediction horizon are dropped; events
// whose time has not yet arrived but lies within the prediction horizon are
// buffered directly rather than handed to reconciliation this tick.
func (n *Node) classifyEvents(frames []inboundFrame) []classifiedEvent {
	out := make([]classifiedEvent, 0, len(frames))
	for _, f := range frames {
		event, err := decodeEvent(f.data)
		if err != nil {
			n.monitor.RecordRewrittenFailure("dropped frame: malformed event")
			continue
		}

		s := f.sess
		engine := s.timeline
		class := engine.Classify(f.peer, event.TimeIntent)

		now := engine.State.Now()
		skew := time.Duration(int64(now)-int64(event.TimeIntent)) * time.Millisecond
		if skew < 0 {
			skew = -skew
		}
		// No acked round trip exists in this design, so the RTT sample is
		// left at zero; only skew and sequence-derived loss feed the model.
		engine.Network.UpdateFromPacket(f.peer, 0, skew, event.ID.Seq)
		s.recordPeerVersion(f.peer, event.VersionRef)

		switch {
		case class.Kind == clock.ClassPast && !class.Correctable:
			n.monitor.RecordRewrittenFailure("dropped event: too far in the past")
			continue
		case class.Kind == clock.ClassFuture && !class.Predictable:
			n.monitor.RecordRewrittenFailure("dropped event: too far in the future")
			continue
		case class.Kind == clock.ClassFuture && class.Predictable:
			s.fields.Get(event.TargetState).BufferPrediction(event)
			continue
		}

		out = append(out, classifiedEvent{sess: s, peer: f.peer, event: event})
	}
	return out
}

// reconcileState admits every classified event through its target field's
// admission algorithm.
func (n *Node) reconcileState(events []classifiedEvent) {
	for _, ce := range events {
		if _, err := ce.sess.fields.Apply(ce.event); err != nil {
			n.monitor.RecordRewrittenFailure("event rejected: " + err.Error())
		}
	}
}

// project fans out each session's current field and presence snapshots to
// their subscribers.
func (n *Node) project(sessions []*session) {
	for _, s := range sessions {
		now := s.timeline.State.Now()
		s.publishFields(now)
		level := n.sessionDegradation(s)
		s.presence.publish(computePresence(s, s.timeline.Perceptual.Now(), n.cfg.LivenessTimeout, level))
	}
}

// pendingOutbound is a locally-originated event still awaiting signature.
type pendingOutbound struct {
	sess  *session
	event state.Event
}

// collectLocalEvents drains each session's locally-submitted queue and
// admits every event into that session's own field store immediately, so a
// node always sees its own writes without waiting on propagation.
func (n *Node) collectLocalEvents(sessions []*session) []pendingOutbound {
	var out []pendingOutbound
	for _, s := range sessions {
		for _, event := range s.drainLocal() {
			if _, err := s.fields.Apply(event); err != nil {
				n.monitor.RecordRewrittenFailure("local event rejected: " + err.Error())
				continue
			}
			out = append(out, pendingOutbound{sess: s, event: event})
		}
	}
	return out
}

// authorizeAndSign attaches this node's signature over the event's encoded
// form to each pending outbound event.
func (n *Node) authorizeAndSign(pending []pendingOutbound) []pendingOutbound {
	for i := range pending {
		preimage := encodeEvent(pending[i].event)
		pending[i].event.AuthorityProof = n.identity.Sign(preimage)
	}
	return pending
}

// builtPacket pairs an encrypted frame with the session and state it
// belongs to, so scheduleTransmission can resolve its own fanout.
type builtPacket struct {
	sess  *session
	state id.StateId
	data  []byte
}

// buildPackets seals each signed event into a frame. ProfileComposite and
// ClassCore are used uniformly here: interpreting an event's profile from
// its StateType is a concern of the profile package that constructed it
// (pkg/msp), not of the transport-agnostic runtime loop.
func (n *Node) buildPackets(pending []pendingOutbound) []builtPacket {
	out := make([]builtPacket, 0, len(pending))
	for _, p := range pending {
		payload := encodeEvent(p.event)
		timeHint := uint32(int64(p.event.TimeIntent))
		data, err := p.sess.processor.EncryptFrame(wire.ClassCore, wire.ProfileComposite, timeHint, nil, payload)
		if err != nil {
			n.monitor.RecordRewrittenFailure("failed to seal outbound frame: " + err.Error())
			continue
		}
		out = append(out, builtPacket{sess: p.sess, state: p.event.TargetState, data: data})
	}
	return out
}

// scheduleTransmission resolves each packet's propagation fanout from the
// session's router and sends it to every peer address it can resolve.
// Peers with no registered address are skipped: Reality Never Waits for an
// address that was never told to it.
func (n *Node) scheduleTransmission(packets []builtPacket) {
	for _, pkt := range packets {
		level := n.sessionDegradation(pkt.sess)
		for _, route := range pkt.sess.router.Route(pkt.state, level) {
			addr, ok := pkt.sess.peerAddr(route.Peer)
			if !ok {
				n.monitor.RecordRewrittenFailure("no address for peer in fanout")
				continue
			}
			if err := n.transport.Send(pkt.data, addr); err != nil {
				n.monitor.RecordRewrittenFailure("send failed: " + err.Error())
			}
		}
	}
}

// sessionDegradation computes a session's current overall degradation
// level without updating s.lastDegradation or publishing to subscribers.
func (n *Node) sessionDegradation(s *session) id.DegradationLevel {
	return invariant.SelectDegradation(s.networkFloor(), s.divergenceFloor(), n.monitor.RaisedFloor())
}

// updateDegradation recomputes each session's degradation level and
// notifies subscribers only when it has changed.
func (n *Node) updateDegradation(sessions []*session) {
	for _, s := range sessions {
		level := n.sessionDegradation(s)
		s.mu.Lock()
		changed := level != s.lastDegradation
		s.lastDegradation = level
		s.mu.Unlock()
		if changed {
			s.degradation.publish(level)
		}
	}
}
