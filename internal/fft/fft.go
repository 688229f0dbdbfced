// Package fft implements the FFT engine (spec §4.4): an iterative radix-2
// Cooley-Tukey transform with a precomputed bit-reversal table and cached
// twiddle factors when N is a power of two, falling back to an O(N^2) DFT
// otherwise. Real-input optimized rfft/irfft pack two real lanes into one
// half-length complex FFT. Precompute caching follows the shape of the
// teacher's celt/kiss_fft.go (bit-reversal table + twiddle table held on
// the engine struct); the algorithm itself is spec-mandated radix-2, not
// the teacher's mixed-radix KissFFT.
package fft

import (
	"math"
	"math/cmplx"

	"github.com/dspxio/dspx/internal/simd"
)

// Engine is an FFT transformer fixed to size N.
type Engine struct {
	n          int
	isPow2     bool
	bitrev     []int
	twiddles   []complex128 // length n, twiddles[k] = exp(-2πi k/n)
	halfEngine *Engine      // for rfft: an Engine of size n/2, built lazily
}

// New constructs an Engine for transforms of size n.
func New(n int) *Engine {
	e := &Engine{n: n, isPow2: isPowerOfTwo(n)}
	if e.isPow2 {
		e.bitrev = bitReversalTable(n)
	}
	e.twiddles = make([]complex128, n)
	for k := 0; k < n; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		e.twiddles[k] = cmplx.Rect(1, theta)
	}
	return e
}

// Size returns the configured transform length N.
func (e *Engine) Size() int { return e.n }

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func bitReversalTable(n int) []int {
	bits := 0
	for 1<<bits < n {
		bits++
	}
	table := make([]int, n)
	for i := 0; i < n; i++ {
		rev := 0
		v := i
		for b := 0; b < bits; b++ {
			rev = (rev << 1) | (v & 1)
			v >>= 1
		}
		table[i] = rev
	}
	return table
}

// FFT computes the forward complex DFT of in into out (len n each).
func (e *Engine) FFT(in, out []complex128) {
	if e.isPow2 {
		e.radix2(in, out, false)
		return
	}
	e.naiveDFT(in, out, false)
}

// IFFT computes the inverse complex DFT of in into out, dividing by N.
func (e *Engine) IFFT(in, out []complex128) {
	if e.isPow2 {
		e.radix2(in, out, true)
	} else {
		e.naiveDFT(in, out, true)
	}
	for i := range out {
		out[i] /= complex(float64(e.n), 0)
	}
}

func (e *Engine) radix2(in, out []complex128, inverse bool) {
	n := e.n
	for i := 0; i < n; i++ {
		out[e.bitrev[i]] = in[i]
	}
	for size := 2; size <= n; size *= 2 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				tw := e.twiddles[k*step]
				if inverse {
					tw = cmplx.Conj(tw)
				}
				a := out[start+k]
				b := out[start+k+half] * tw
				out[start+k] = a + b
				out[start+k+half] = a - b
			}
		}
	}
}

func (e *Engine) naiveDFT(in, out []complex128, inverse bool) {
	n := e.n
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			theta := sign * 2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += in[t] * cmplx.Rect(1, theta)
		}
		out[k] = sum
	}
}

// RFFT computes the real-input optimized forward transform: real input of
// length N produces N/2+1 complex outputs. N must be even. It packs the
// even/odd samples into one complex sequence of length N/2, runs a
// half-size complex FFT, then untangles the result.
func (e *Engine) RFFT(real []float32, out []complex128) {
	n := e.n
	half := n / 2
	if e.halfEngine == nil || e.halfEngine.n != half {
		e.halfEngine = New(half)
	}
	packed := make([]complex128, half)
	for i := 0; i < half; i++ {
		packed[i] = complex(float64(real[2*i]), float64(real[2*i+1]))
	}
	z := make([]complex128, half)
	e.halfEngine.FFT(packed, z)

	out[0] = complex(real64(z[0])+imag64(z[0]), 0)
	out[half] = complex(real64(z[0])-imag64(z[0]), 0)
	for k := 1; k < half; k++ {
		zk := z[k]
		znk := cmplx.Conj(z[half-k])
		fe := (zk + znk) / 2
		fo := (zk - znk) / complex(0, 2)
		tw := e.twiddles[k]
		out[k] = fe + fo*tw
	}
	// Only the N/2+1 non-redundant bins are written; the conjugate-symmetric
	// upper half of the spectrum is not filled in.
}

// IRFFT computes the inverse of RFFT: N/2+1 complex input bins produce N
// real outputs.
func (e *Engine) IRFFT(spec []complex128, out []float32) {
	n := e.n
	half := n / 2
	if e.halfEngine == nil || e.halfEngine.n != half {
		e.halfEngine = New(half)
	}
	full := make([]complex128, half)
	full[0] = complex((real64(spec[0])+real64(spec[half]))/2, (real64(spec[0])-real64(spec[half]))/2)
	for k := 1; k < half; k++ {
		xk := spec[k]
		xnk := cmplx.Conj(spec[half-k])
		fe := (xk + xnk) / 2
		invTw := 1 / e.twiddles[k]
		fo := (xk - xnk) / 2 * invTw
		full[k] = fe + complex(0, 1)*fo
	}
	packedTime := make([]complex128, half)
	e.halfEngine.IFFT(full, packedTime)
	for i := 0; i < half; i++ {
		out[2*i] = float32(real64(packedTime[i]))
		out[2*i+1] = float32(imag64(packedTime[i]))
	}
}

func real64(c complex128) float64 { return real(c) }
func imag64(c complex128) float64 { return imag(c) }

// Magnitude writes out[i] = |spec[i]| for i in [0,n) using the shared SIMD
// complex-magnitude kernel.
func Magnitude(spec []complex128, out []float32, n int) {
	re := make([]float32, n)
	im := make([]float32, n)
	for i := 0; i < n; i++ {
		re[i] = float32(real(spec[i]))
		im[i] = float32(imag(spec[i]))
	}
	simd.ComplexMagnitude(re, im, out, n)
}

// Phase writes out[i] = atan2(imag, real) for i in [0,n).
func Phase(spec []complex128, out []float32, n int) {
	for i := 0; i < n; i++ {
		out[i] = float32(math.Atan2(imag(spec[i]), real(spec[i])))
	}
}

// Power writes out[i] = |spec[i]|^2 for i in [0,n).
func Power(spec []complex128, out []float32, n int) {
	re := make([]float32, n)
	im := make([]float32, n)
	for i := 0; i < n; i++ {
		re[i] = float32(real(spec[i]))
		im[i] = float32(imag(spec[i]))
	}
	simd.ComplexPower(re, im, out, n)
}
