// Package clock implements ELARA's dual-clock time engine: a monotonic,
// purely local perceptual clock and an elastic, convergence-oriented state
// clock, plus the network model and event-time classification that sit on
// top of them. The three concerns are split into clock.go, network.go, and
// engine.go, mirroring the clock/network/engine module split used
// elsewhere for the same concerns.
package clock

import (
	"sync"
	"time"

	"github.com/rafaelsistems/elara/pkg/id"
)

// MinRate and MaxRate bound the state clock's rate: it blends toward 1.0
// when convergence error is low, and is pushed away from 1.0 only within
// this window when a network-wide correction is required.
const (
	MinRate = 0.5
	MaxRate = 2.0
)

// PerceptualClock is monotonic and purely local. It never jumps backward
// and is never corrected; it tracks real elapsed wall time and is used for
// local UI rendering and rate limits.
type PerceptualClock struct {
	mu      sync.Mutex
	nowMs   int64
	lastTap time.Time
	started bool
}

// NewPerceptualClock returns a clock at time zero, not yet started.
func NewPerceptualClock() *PerceptualClock {
	return &PerceptualClock{}
}

// Tick advances the clock by the real wall-clock time elapsed since the
// previous Tick call and returns the new value. The first call only starts
// the clock: it records now and returns the current value unchanged.
func (c *PerceptualClock) Tick(now time.Time) id.PerceptualTime {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		c.started = true
		c.lastTap = now
		return id.PerceptualTime(c.nowMs)
	}

	elapsed := now.Sub(c.lastTap)
	if elapsed > 0 {
		c.nowMs += elapsed.Milliseconds()
	}
	c.lastTap = now
	return id.PerceptualTime(c.nowMs)
}

// Now returns the clock's current value without advancing it.
func (c *PerceptualClock) Now() id.PerceptualTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id.PerceptualTime(c.nowMs)
}

// StateClock is elastic: it advances each tick by dt*rate, where rate is
// blended toward 1.0 under good convergence and pushed away from 1.0 when a
// correction must be absorbed. Corrections are blended gradually over a
// smoothing window rather than stepped instantaneously, so observers never
// see the clock move backward except across an explicit session reset.
type StateClock struct {
	mu sync.Mutex

	nowMs int64
	rate  float64

	pendingCorrection   int64
	smoothingWindow     time.Duration
	correctionRemaining time.Duration
}

// DefaultSmoothingWindow is how long a correction is blended in before it
// is considered fully absorbed.
const DefaultSmoothingWindow = 500 * time.Millisecond

// NewStateClock returns a state clock starting at time zero with rate 1.0.
func NewStateClock() *StateClock {
	return &StateClock{rate: 1.0, smoothingWindow: DefaultSmoothingWindow}
}

// Advance performs the per-tick step: nowMs += dt * rate, plus a share of
// any pending correction proportional to how much of the smoothing window
// this tick covers.
func (c *StateClock) Advance(dt time.Duration) id.StateTime {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := float64(dt.Milliseconds()) * c.rate
	c.nowMs += int64(step)

	if c.pendingCorrection != 0 && c.correctionRemaining > 0 {
		// Blend: apply a fraction of the remaining correction proportional
		// to the fraction of the remaining window this tick covers, so the
		// full delta lands exactly when correctionRemaining hits zero.
		frac := float64(dt) / float64(c.correctionRemaining)
		if frac > 1 {
			frac = 1
		}
		portion := int64(float64(c.pendingCorrection) * frac)

		c.nowMs += portion
		c.pendingCorrection -= portion
		c.correctionRemaining -= dt
		if c.correctionRemaining <= 0 {
			c.nowMs += c.pendingCorrection // absorb any rounding remainder
			c.pendingCorrection = 0
			c.correctionRemaining = 0
		}
	}

	// Rate always blends back toward 1.0; a network model that detects
	// convergence error pushes it away via SetRate between ticks.
	c.rate = blendToward(c.rate, 1.0, 0.2)

	return id.StateTime(c.nowMs)
}

// ApplyCorrection schedules delta milliseconds to be blended in gradually
// over the smoothing window, rather than applied instantaneously.
func (c *StateClock) ApplyCorrection(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingCorrection += delta
	c.correctionRemaining = c.smoothingWindow
}

// Reset snaps the clock to an explicit value, discarding any pending
// correction. This is the only path by which StateTime may move backward.
func (c *StateClock) Reset(value id.StateTime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMs = int64(value)
	c.pendingCorrection = 0
	c.correctionRemaining = 0
	c.rate = 1.0
}

// Now returns the clock's current value without advancing it.
func (c *StateClock) Now() id.StateTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id.StateTime(c.nowMs)
}

// Rate returns the clock's current blend rate, in [MinRate, MaxRate].
func (c *StateClock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetRate pushes the clock's rate away from 1.0, clamped to [MinRate,
// MaxRate]. The network model calls this when convergence error requires
// the state clock to run temporarily fast or slow; absent further calls,
// Advance blends the rate back toward 1.0 on its own.
func (c *StateClock) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = clampRate(rate)
}

func clampRate(r float64) float64 {
	if r < MinRate {
		return MinRate
	}
	if r > MaxRate {
		return MaxRate
	}
	return r
}

func blendToward(rate, target, step float64) float64 {
	if rate < target {
		rate += step
		if rate > target {
			rate = target
		}
	} else if rate > target {
		rate -= step
		if rate < target {
			rate = target
		}
	}
	return clampRate(rate)
}
