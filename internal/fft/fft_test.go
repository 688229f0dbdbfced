package fft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRFFTIRFFTRoundTrips is the rfft/irfft round-trip check (a two-tone
// signal recovered within 1e-5 after forward then inverse transform).
func TestRFFTIRFFTRoundTrips(t *testing.T) {
	const n = 1024
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(math.Cos(2*math.Pi*5*float64(i)/n) + 0.5*math.Sin(2*math.Pi*50*float64(i)/n))
	}

	e := New(n)
	spec := make([]complex128, n/2+1)
	e.RFFT(x, spec)

	got := make([]float32, n)
	e.IRFFT(spec, got)

	var maxErr float64
	for i := range x {
		if d := math.Abs(float64(got[i] - x[i])); d > maxErr {
			maxErr = d
		}
	}
	assert.Less(t, maxErr, 1e-5)
}

// TestFFTIFFTRoundTrips checks the complex radix-2 core independently of
// the real-optimized rfft/irfft wrappers.
func TestFFTIFFTRoundTrips(t *testing.T) {
	const n = 256
	in := make([]complex128, n)
	for i := range in {
		in[i] = complex(math.Sin(2*math.Pi*3*float64(i)/n), 0)
	}

	e := New(n)
	spec := make([]complex128, n)
	e.FFT(in, spec)

	got := make([]complex128, n)
	e.IFFT(spec, got)

	var maxErr float64
	for i := range in {
		if d := math.Abs(real(got[i]) - real(in[i])); d > maxErr {
			maxErr = d
		}
	}
	assert.Less(t, maxErr, 1e-9)
}

func TestFFTNonPowerOfTwoFallsBackToNaiveDFT(t *testing.T) {
	const n = 6
	in := make([]complex128, n)
	for i := range in {
		in[i] = complex(float64(i), 0)
	}
	e := New(n)
	spec := make([]complex128, n)
	e.FFT(in, spec)

	got := make([]complex128, n)
	e.IFFT(spec, got)
	for i := range in {
		assert.InDelta(t, real(in[i]), real(got[i]), 1e-6)
	}
}
