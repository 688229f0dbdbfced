package window

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/buffer"
)

// Engine drives a Policy over a fixed-size sliding window (spec §4.2).
type Engine struct {
	ring   *buffer.Ring
	policy Policy
}

// NewEngine allocates an Engine with the given window size and policy.
func NewEngine(windowSize int, policy Policy) *Engine {
	return &Engine{ring: buffer.NewRing(windowSize), policy: policy}
}

// AddSample pushes x into the window, updating the policy and returning
// its result.
func (e *Engine) AddSample(x float32) float32 {
	if e.ring.Full() {
		old, _ := e.ring.Peek()
		e.policy.OnRemove(old)
	}
	e.ring.PushOverwrite(x)
	e.policy.OnAdd(x)
	return e.policy.Result(e.ring.Len())
}

// Window returns the current oldest-to-newest window contents.
func (e *Engine) Window() []float32 { return e.ring.ToVector() }

// Len reports how many samples are currently in the window.
func (e *Engine) Len() int { return e.ring.Len() }

// Reset clears the ring and the policy state.
func (e *Engine) Reset() {
	e.ring.Clear()
	e.policy.Clear()
}

// Policy exposes the underlying policy, e.g. for PeakDetection's
// window-based result or Convolution's on-demand dot product.
func (e *Engine) Policy() Policy { return e.policy }

// TimedEngine is the time-aware counterpart (spec §4.2): addSample first
// expires stale elements against the new timestamp and, if any were
// expired, clears and replays the policy from the remaining window
// (policies must be rebuildable this way).
type TimedEngine struct {
	ring     *buffer.TimedRing
	policy   Policy
	lastTime float32
	hasLast  bool
}

// NewTimedEngine allocates a time-aware Engine with an expiry window of
// windowDurationMs.
func NewTimedEngine(capacity int, windowDurationMs float64, policy Policy) *TimedEngine {
	return &TimedEngine{ring: buffer.NewTimedRing(capacity, windowDurationMs), policy: policy}
}

// AddSample pushes (x, t), enforcing monotonic timestamps, expiring stale
// elements, and replaying the policy if anything expired.
func (e *TimedEngine) AddSample(x float32, t float32) (float32, error) {
	if e.hasLast && t < e.lastTime {
		return 0, dspxerr.NonMonotonic
	}
	e.lastTime = t
	e.hasLast = true

	expired, err := e.ring.ExpireOld(t)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		e.policy.Clear()
		for _, v := range e.ring.ToVector() {
			e.policy.OnAdd(v)
		}
	}
	if e.ring.Full() {
		old, _, _ := e.ring.Peek()
		e.policy.OnRemove(old)
	}
	e.ring.PushOverwrite(x, t)
	e.policy.OnAdd(x)
	return e.policy.Result(e.ring.Len()), nil
}

// Window returns the current oldest-to-newest window contents.
func (e *TimedEngine) Window() []float32 { return e.ring.ToVector() }

// Len reports how many samples are currently in the window.
func (e *TimedEngine) Len() int { return e.ring.Len() }

// Policy exposes the underlying policy.
func (e *TimedEngine) Policy() Policy { return e.policy }

// Reset clears the ring, the policy state, and the monotonicity tracker.
func (e *TimedEngine) Reset() {
	e.ring.Clear()
	e.policy.Clear()
	e.hasLast = false
}
