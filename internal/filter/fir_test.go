package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFIRImpulseResponseMatchesCoefficients feeds a unit impulse through a
// 21-tap Hamming-windowed low-pass FIR and checks the output's first 21
// samples reproduce the coefficient vector exactly, with silence after.
func TestFIRImpulseResponseMatchesCoefficients(t *testing.T) {
	coeffs := DesignFIR(FIRLowPass, 20, 0.1, 0, FIRHamming)
	assert.Len(t, coeffs, 21)

	in := make([]float32, 64)
	in[0] = 1
	out := make([]float32, len(in))

	f := NewFIR(coeffs)
	f.Process(in, out, false)

	for i, c := range coeffs {
		assert.InDelta(t, c, out[i], 1e-6)
	}
	for i := len(coeffs); i < len(out); i++ {
		assert.InDelta(t, 0.0, out[i], 1e-6)
	}
}

func TestFIRResetClearsDelayLine(t *testing.T) {
	f := NewFIR([]float32{1, 0.5})
	f.ProcessSample(4)
	f.Reset()
	assert.Equal(t, []float32{0, 0}, f.Delay())
}

func TestFIRProcessStatelessLeavesDelayUnchanged(t *testing.T) {
	f := NewFIR([]float32{0.5, 0.5})
	f.ProcessSample(2)
	before := f.Delay()

	out := make([]float32, 3)
	f.Process([]float32{1, 2, 3}, out, true)

	assert.Equal(t, before, f.Delay())
}

func TestProcessStatelessFreshMatchesFreshFIR(t *testing.T) {
	coeffs := []float32{0.25, 0.5, 0.25}
	in := []float32{1, 2, 3, 4, 5}

	want := make([]float32, len(in))
	fresh := NewFIR(coeffs)
	fresh.Process(in, want, false)

	got := make([]float32, len(in))
	ProcessStatelessFresh(coeffs, in, got)

	assert.Equal(t, want, got)
}
