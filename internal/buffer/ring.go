// Package buffer implements the fixed-capacity circular sample buffer
// (spec §4.1) used by the sliding-window statistics engine and any stage
// that needs a bounded lookback window.
package buffer

import "github.com/dspxio/dspx/dspxerr"

// Ring is a fixed-capacity FIFO of float32 values.
type Ring struct {
	data  []float32
	head  int // next write position
	tail  int // oldest element position
	count int
}

// NewRing allocates a Ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{data: make([]float32, capacity)}
}

// Capacity returns the maximum number of elements the ring can hold.
func (r *Ring) Capacity() int { return len(r.data) }

// Len returns the number of elements currently stored.
func (r *Ring) Len() int { return r.count }

// Full reports whether the ring is at capacity.
func (r *Ring) Full() bool { return r.count == len(r.data) }

// Empty reports whether the ring holds no elements.
func (r *Ring) Empty() bool { return r.count == 0 }

// Push appends x, failing with Full if the ring is already at capacity.
func (r *Ring) Push(x float32) error {
	if r.Full() {
		return dspxerr.Full
	}
	r.data[r.head] = x
	r.head = (r.head + 1) % len(r.data)
	r.count++
	return nil
}

// PushOverwrite appends x, advancing the tail (dropping the oldest element)
// when the ring is full. Always succeeds.
func (r *Ring) PushOverwrite(x float32) (overwritten float32, didOverwrite bool) {
	if r.Full() {
		overwritten = r.data[r.tail]
		didOverwrite = true
		r.tail = (r.tail + 1) % len(r.data)
		r.count--
	}
	r.data[r.head] = x
	r.head = (r.head + 1) % len(r.data)
	r.count++
	return overwritten, didOverwrite
}

// Pop removes and returns the oldest element.
func (r *Ring) Pop() (float32, error) {
	if r.Empty() {
		return 0, dspxerr.Empty
	}
	v := r.data[r.tail]
	r.tail = (r.tail + 1) % len(r.data)
	r.count--
	return v, nil
}

// Peek returns the oldest element without removing it.
func (r *Ring) Peek() (float32, error) {
	if r.Empty() {
		return 0, dspxerr.Empty
	}
	return r.data[r.tail], nil
}

// PeekNewest returns the most recently pushed element without removing it.
func (r *Ring) PeekNewest() (float32, error) {
	if r.Empty() {
		return 0, dspxerr.Empty
	}
	idx := (r.head - 1 + len(r.data)) % len(r.data)
	return r.data[idx], nil
}

// At returns the i-th element in chronological (oldest-first) order.
func (r *Ring) At(i int) float32 {
	return r.data[(r.tail+i)%len(r.data)]
}

// Clear empties the ring without releasing its backing storage.
func (r *Ring) Clear() {
	r.head, r.tail, r.count = 0, 0, 0
}

// ToVector returns a freshly allocated oldest-to-newest copy.
func (r *Ring) ToVector() []float32 {
	out := make([]float32, r.count)
	r.CopyTo(out)
	return out
}

// CopyTo writes an oldest-to-newest copy into dest, which must have length
// >= Len().
func (r *Ring) CopyTo(dest []float32) {
	for i := 0; i < r.count; i++ {
		dest[i] = r.At(i)
	}
}

// FromVector clears the ring and overwrite-pushes every element of v, in
// order.
func (r *Ring) FromVector(v []float32) {
	r.Clear()
	for _, x := range v {
		r.PushOverwrite(x)
	}
}
