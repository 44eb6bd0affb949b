// Package config holds the tunable parameters for a running ELARA node,
// collected into a single struct with a WithDefaults method, the way the
// teacher collects MRP timing into session.Params.
package config

import "time"

// Defaults for every tunable enumerated in the external-interfaces
// configuration table.
const (
	DefaultTickPeriod             = 16 * time.Millisecond
	DefaultMaxFrameSize           = 1200
	DefaultRatchetFramesPerEpoch  = 4096
	DefaultRatchetSecondsPerEpoch = 60 * time.Second
	DefaultReplayWindow           = 1024
	DefaultCorrectionHorizonK     = 3.0
	DefaultPredictionHorizon      = 200 * time.Millisecond
	DefaultFieldSizeCap           = 16 * 1024
	DefaultDepQueueCap            = 256
	DefaultPredictionBufferCap    = 256
	DefaultPresenceWindow         = 5 * time.Second
	DefaultLivenessTimeout        = 10 * time.Second
)

// Config is the full set of tunables a node is constructed with. Every zero
// field is replaced by its documented default via WithDefaults.
type Config struct {
	// TickPeriod is the runtime loop's target period. If a tick overruns,
	// later stages are skipped in reverse priority order, but stages 1-3
	// are never skipped.
	TickPeriod time.Duration

	// MaxFrameSize is the MTU-safe cap on a serialized frame.
	MaxFrameSize int

	// RatchetFramesPerEpoch and RatchetSecondsPerEpoch bound how long a
	// ratchet epoch's key may be used before the sender advances to a
	// fresh one.
	RatchetFramesPerEpoch  uint32
	RatchetSecondsPerEpoch time.Duration

	// ReplayWindow is the width, in sequence numbers, of the per-(session,
	// source) replay bitmap.
	ReplayWindow int

	// CorrectionHorizonK scales the network model's RTT standard deviation
	// into the correction horizon: correction_horizon = rtt_mean + k*stddev.
	CorrectionHorizonK float64

	// PredictionHorizon is the max_ahead_allowed bound on how far into the
	// future an event's timestamp may sit and still be admitted to the
	// prediction buffer.
	PredictionHorizon time.Duration

	// FieldSizeCap and DepQueueCap and PredictionBufferCap bound the state
	// engine's per-field memory: representation size, buffered-dependency
	// count, and prediction-buffer count respectively.
	FieldSizeCap        int
	DepQueueCap         int
	PredictionBufferCap int

	// PresenceWindow is the interval over which "any peer packet was seen"
	// is evaluated for the Presence Over Packets invariant.
	PresenceWindow time.Duration

	// LivenessTimeout is the per-peer silence duration after which a peer
	// is marked latent and degradation is raised.
	LivenessTimeout time.Duration
}

// WithDefaults returns a copy of c with every zero-valued field replaced by
// its documented default.
func (c Config) WithDefaults() Config {
	out := c
	if out.TickPeriod == 0 {
		out.TickPeriod = DefaultTickPeriod
	}
	if out.MaxFrameSize == 0 {
		out.MaxFrameSize = DefaultMaxFrameSize
	}
	if out.RatchetFramesPerEpoch == 0 {
		out.RatchetFramesPerEpoch = DefaultRatchetFramesPerEpoch
	}
	if out.RatchetSecondsPerEpoch == 0 {
		out.RatchetSecondsPerEpoch = DefaultRatchetSecondsPerEpoch
	}
	if out.ReplayWindow == 0 {
		out.ReplayWindow = DefaultReplayWindow
	}
	if out.CorrectionHorizonK == 0 {
		out.CorrectionHorizonK = DefaultCorrectionHorizonK
	}
	if out.PredictionHorizon == 0 {
		out.PredictionHorizon = DefaultPredictionHorizon
	}
	if out.FieldSizeCap == 0 {
		out.FieldSizeCap = DefaultFieldSizeCap
	}
	if out.DepQueueCap == 0 {
		out.DepQueueCap = DefaultDepQueueCap
	}
	if out.PredictionBufferCap == 0 {
		out.PredictionBufferCap = DefaultPredictionBufferCap
	}
	if out.PresenceWindow == 0 {
		out.PresenceWindow = DefaultPresenceWindow
	}
	if out.LivenessTimeout == 0 {
		out.LivenessTimeout = DefaultLivenessTimeout
	}
	return out
}

// Validate reports whether every field holds a usable (positive) value.
func (c Config) Validate() bool {
	return c.TickPeriod > 0 &&
		c.MaxFrameSize > 0 &&
		c.RatchetFramesPerEpoch > 0 &&
		c.RatchetSecondsPerEpoch > 0 &&
		c.ReplayWindow > 0 &&
		c.CorrectionHorizonK > 0 &&
		c.PredictionHorizon > 0 &&
		c.FieldSizeCap > 0 &&
		c.DepQueueCap > 0 &&
		c.PredictionBufferCap > 0 &&
		c.PresenceWindow > 0 &&
		c.LivenessTimeout > 0
}
