package buffer

import "github.com/dspxio/dspx/dspxerr"

// TimedRing is a Ring with a parallel timestamp (ms) array and optional
// time-window expiry (spec §4.1).
type TimedRing struct {
	values Ring
	times  []float32
	// windowDurationMs <= 0 means "not time-aware" (plain ring behavior,
	// but ConfigError on the time-aware-only methods).
	windowDurationMs float64
	timeAware        bool
}

// NewTimedRing allocates a time-aware ring. windowDurationMs <= 0 creates a
// ring that stores timestamps but has no expiry window.
func NewTimedRing(capacity int, windowDurationMs float64) *TimedRing {
	return &TimedRing{
		values:           *NewRing(capacity),
		times:            make([]float32, capacity),
		windowDurationMs: windowDurationMs,
		timeAware:        true,
	}
}

func (r *TimedRing) Len() int      { return r.values.Len() }
func (r *TimedRing) Full() bool    { return r.values.Full() }
func (r *TimedRing) Empty() bool   { return r.values.Empty() }
func (r *TimedRing) Capacity() int { return r.values.Capacity() }

// Push stores (x, t), failing with Full if at capacity.
func (r *TimedRing) Push(x float32, t float32) error {
	if r.values.Full() {
		return dspxerr.Full
	}
	head := r.values.head
	r.times[head] = t
	return r.values.Push(x)
}

// PushOverwrite stores (x, t), evicting the oldest element if full.
func (r *TimedRing) PushOverwrite(x float32, t float32) {
	head := r.values.head
	r.times[head] = t
	r.values.PushOverwrite(x)
}

// Pop removes and returns the oldest (value, timestamp) pair.
func (r *TimedRing) Pop() (float32, float32, error) {
	if r.values.Empty() {
		return 0, 0, dspxerr.Empty
	}
	tail := r.values.tail
	t := r.times[tail]
	v, err := r.values.Pop()
	return v, t, err
}

// Peek returns the oldest (value, timestamp) pair without removing it.
func (r *TimedRing) Peek() (float32, float32, error) {
	if r.values.Empty() {
		return 0, 0, dspxerr.Empty
	}
	return r.values.data[r.values.tail], r.times[r.values.tail], nil
}

// PeekNewestTime returns the timestamp of the most recently pushed element.
func (r *TimedRing) PeekNewestTime() (float32, error) {
	if r.values.Empty() {
		return 0, dspxerr.Empty
	}
	idx := (r.values.head - 1 + len(r.values.data)) % len(r.values.data)
	return r.times[idx], nil
}

// At returns the i-th (value, timestamp) pair in chronological order.
func (r *TimedRing) At(i int) (float32, float32) {
	idx := (r.values.tail + i) % len(r.values.data)
	return r.values.data[idx], r.times[idx]
}

// Clear empties the ring.
func (r *TimedRing) Clear() { r.values.Clear() }

// ToVector returns oldest-to-newest value copies.
func (r *TimedRing) ToVector() []float32 { return r.values.ToVector() }

// ExpireOld pops from the tail while the tail's timestamp is older than
// now - windowDurationMs, returning the number of elements expired.
// Fails with ConfigError if the ring has no window configured.
func (r *TimedRing) ExpireOld(nowMs float32) (int, error) {
	if r.windowDurationMs <= 0 {
		return 0, dspxerr.ConfigError
	}
	expired := 0
	for !r.values.Empty() {
		_, t := r.At(0)
		if float64(nowMs)-float64(t) <= r.windowDurationMs {
			break
		}
		if _, _, err := r.Pop(); err != nil {
			break
		}
		expired++
	}
	return expired, nil
}

// WindowDurationMs returns the configured expiry window, or 0 if none.
func (r *TimedRing) WindowDurationMs() float64 { return r.windowDurationMs }
