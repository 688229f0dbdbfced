// Package filter implements the FIR/IIR/differentiable filter cores
// (spec §4.5): single-sample and batch processing in stateless or
// stateful modes, standard coefficient designs, and LMS/NLMS/RLS adaptive
// filters. Grounded on the direct-form biquad shape in
// other_examples/7eb9414d_CWBudde-algo-dsp__dsp-filter-biquad-section.go.go
// and the delay-line bookkeeping style of other_examples/37ebf3a5_CWBudde-algo-dsp__dsp-conv-partitioned.go.go.
package filter

import "github.com/dspxio/dspx/internal/simd"

// FIR is a finite-impulse-response filter with an optional per-channel
// delay line for stateful processing.
type FIR struct {
	Coeffs []float32
	delay  []float32 // newest-first delay line, len == len(Coeffs)
}

// NewFIR constructs an FIR filter from the given coefficients.
func NewFIR(coeffs []float32) *FIR {
	f := &FIR{Coeffs: append([]float32(nil), coeffs...)}
	f.delay = make([]float32, len(coeffs))
	return f
}

// Reset zeroes the delay line.
func (f *FIR) Reset() {
	for i := range f.delay {
		f.delay[i] = 0
	}
}

// ProcessSample shifts x into the delay line and returns the dot product
// of coefficients and delay line.
func (f *FIR) ProcessSample(x float32) float32 {
	copy(f.delay[1:], f.delay[:len(f.delay)-1])
	f.delay[0] = x
	return float32(simd.DotProduct(f.Coeffs, f.delay))
}

// Process filters in into out (len(in) == len(out)). If stateless, the
// delay line is saved and restored around the call so the filter's
// persistent state is unaffected; if stateful, the delay line is updated
// in place.
func (f *FIR) Process(in, out []float32, stateless bool) {
	var saved []float32
	if stateless {
		saved = append([]float32(nil), f.delay...)
	}
	for i, x := range in {
		out[i] = f.ProcessSample(x)
	}
	if stateless {
		f.delay = saved
	}
}

// Delay returns the current delay-line contents (newest-first), for
// snapshotting.
func (f *FIR) Delay() []float32 { return append([]float32(nil), f.delay...) }

// SetDelay restores the delay line from a previously saved snapshot.
func (f *FIR) SetDelay(d []float32) { f.delay = append([]float32(nil), d...) }

// ProcessStatelessFresh filters in into out starting from an all-zero
// delay line, without touching f's persistent state at all (used to prove
// spec property 5: stateless-on-full-buffer == stateful-from-fresh).
func ProcessStatelessFresh(coeffs, in, out []float32) {
	fresh := NewFIR(coeffs)
	fresh.Process(in, out, false)
}
