package clock

import (
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
)

// TimeClassKind distinguishes the three buckets an incoming event's
// timestamp can fall into relative to the reality window.
type TimeClassKind uint8

const (
	ClassPast TimeClassKind = iota
	ClassPresent
	ClassFuture
)

// TimeClass is the result of classify_time: which bucket an event falls
// into, plus whether a Past event can still be backfilled or a Future event
// can be admitted to the prediction buffer.
type TimeClass struct {
	Kind        TimeClassKind
	Correctable bool // meaningful only when Kind == ClassPast
	Predictable bool // meaningful only when Kind == ClassFuture
}

func (c TimeClass) String() string {
	switch c.Kind {
	case ClassPast:
		if c.Correctable {
			return "Past{correctable}"
		}
		return "Past{!correctable}"
	case ClassPresent:
		return "Present"
	case ClassFuture:
		if c.Predictable {
			return "Future{predictable}"
		}
		return "Future{!predictable}"
	default:
		return "Unknown"
	}
}

// Engine couples a StateClock with a NetworkModel to classify incoming
// event timestamps against the reality window [now-correction_horizon,
// now+prediction_horizon].
type Engine struct {
	Perceptual *PerceptualClock
	State      *StateClock
	Network    *NetworkModel
}

// NewEngine wires a fresh perceptual clock, state clock, and network model
// together using the given horizon parameters.
func NewEngine(correctionHorizonK float64, predictionHorizon time.Duration) *Engine {
	return &Engine{
		Perceptual: NewPerceptualClock(),
		State:      NewStateClock(),
		Network:    NewNetworkModel(correctionHorizonK, predictionHorizon),
	}
}

// Classify buckets ts (an event's StateTime) against the reality window
// computed from peer's current network estimates and the state clock's
// current value.
//
// Past events inside the correction horizon are Correctable (merged with a
// backfill correction); outside it they are not (fails EventTooLate at the
// caller). Future events inside the prediction horizon are Predictable
// (buffered for later activation); outside it they are not (fails
// EventTooEarly at the caller). This function never itself returns an
// error: classification is total, the caller decides what each bucket
// means for admission.
func (e *Engine) Classify(peer id.NodeId, ts id.StateTime) TimeClass {
	now := e.State.Now()
	correctionHorizon := e.Network.CorrectionHorizon(peer)
	predictionHorizon := e.Network.PredictionHorizon()

	lowerBound := int64(now) - correctionHorizon.Milliseconds()
	upperBound := int64(now) + predictionHorizon.Milliseconds()

	switch {
	case int64(ts) < lowerBound:
		return TimeClass{Kind: ClassPast, Correctable: false}
	case int64(ts) < int64(now):
		return TimeClass{Kind: ClassPast, Correctable: true}
	case int64(ts) <= upperBound:
		if int64(ts) == int64(now) {
			return TimeClass{Kind: ClassPresent}
		}
		return TimeClass{Kind: ClassFuture, Predictable: true}
	default:
		return TimeClass{Kind: ClassFuture, Predictable: false}
	}
}
