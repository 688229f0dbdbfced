package filter

import "github.com/dspxio/dspx/internal/simd"

// Adaptive is a per-channel FIR filter with LMS or NLMS adaptation
// (spec §4.5): output = Σ w·x, error = desired - output, and, if
// adapting, w += μ·error·x / (λ + ‖x‖²) (NLMS when normalized, plain LMS
// with λ=0 otherwise).
type Adaptive struct {
	Weights    []float32
	delay      []float32 // newest-first
	Mu         float64
	Normalized bool
	Lambda     float64
}

// NewAdaptive constructs an adaptive filter with numTaps zero-initialized
// weights.
func NewAdaptive(numTaps int, mu float64, normalized bool, lambda float64) *Adaptive {
	return &Adaptive{
		Weights:    make([]float32, numTaps),
		delay:      make([]float32, numTaps),
		Mu:         mu,
		Normalized: normalized,
		Lambda:     lambda,
	}
}

// Process runs the filter over input/desired, writing output and error,
// and updates the weights in place when adapt is true.
func (f *Adaptive) Process(input, desired, output, errOut []float32, adapt bool) {
	for i, x := range input {
		copy(f.delay[1:], f.delay[:len(f.delay)-1])
		f.delay[0] = x

		y := float32(simd.DotProduct(f.Weights, f.delay))
		e := desired[i] - y
		output[i] = y
		errOut[i] = e

		if !adapt {
			continue
		}
		lambda := f.Lambda
		if !f.Normalized {
			lambda = 0
		}
		energy := simd.SumOfSquares(f.delay)
		denom := lambda + energy
		if denom == 0 {
			denom = 1e-12
		}
		step := f.Mu * float64(e) / denom
		for j := range f.Weights {
			f.Weights[j] += float32(step) * f.delay[j]
		}
	}
}

// Reset zeroes the weights and delay line.
func (f *Adaptive) Reset() {
	for i := range f.Weights {
		f.Weights[i] = 0
	}
	for i := range f.delay {
		f.delay[i] = 0
	}
}

// RLS is a recursive-least-squares adaptive filter: exponentially-weighted
// with an explicit inverse-covariance update. Kept distinct from Adaptive
// because its recursion (matrix inverse update) differs fundamentally from
// LMS's gradient step, per SPEC_FULL's supplemented adaptive-filter family.
type RLS struct {
	Weights     []float32
	delay       []float32
	forgetting  float64 // lambda in (0,1]
	delta       float64
	p           [][]float64 // inverse correlation matrix, numTaps x numTaps
}

// NewRLS constructs an RLS filter with numTaps weights, forgetting factor
// lambda, and inverse-covariance initialization 1/delta * I.
func NewRLS(numTaps int, lambda, delta float64) *RLS {
	p := make([][]float64, numTaps)
	for i := range p {
		p[i] = make([]float64, numTaps)
		p[i][i] = 1 / delta
	}
	return &RLS{
		Weights:    make([]float32, numTaps),
		delay:      make([]float32, numTaps),
		forgetting: lambda,
		delta:      delta,
		p:          p,
	}
}

// Process runs the RLS filter over input/desired, writing output and
// error, updating weights and the inverse covariance matrix when adapt is
// true.
func (f *RLS) Process(input, desired, output, errOut []float32, adapt bool) {
	n := len(f.Weights)
	pu := make([]float64, n)
	for i, x := range input {
		copy(f.delay[1:], f.delay[:n-1])
		f.delay[0] = x

		y := float32(0)
		for j := 0; j < n; j++ {
			y += f.Weights[j] * f.delay[j]
		}
		e := desired[i] - y
		output[i] = y
		errOut[i] = e

		if !adapt {
			continue
		}
		for r := 0; r < n; r++ {
			var s float64
			for c := 0; c < n; c++ {
				s += f.p[r][c] * float64(f.delay[c])
			}
			pu[r] = s
		}
		var denom float64 = f.forgetting
		for j := 0; j < n; j++ {
			denom += float64(f.delay[j]) * pu[j]
		}
		gain := make([]float64, n)
		for j := 0; j < n; j++ {
			gain[j] = pu[j] / denom
		}
		for j := 0; j < n; j++ {
			f.Weights[j] += float32(gain[j] * float64(e))
		}
		newP := make([][]float64, n)
		for r := 0; r < n; r++ {
			newP[r] = make([]float64, n)
			for c := 0; c < n; c++ {
				newP[r][c] = (f.p[r][c] - gain[r]*pu[c]) / f.forgetting
			}
		}
		f.p = newP
	}
}

// Reset zeroes the weights/delay and reinitializes the inverse covariance.
func (f *RLS) Reset() {
	n := len(f.Weights)
	for i := range f.Weights {
		f.Weights[i] = 0
		f.delay[i] = 0
	}
	for i := range f.p {
		for j := range f.p[i] {
			f.p[i][j] = 0
		}
		f.p[i][i] = 1 / f.delta
	}
	_ = n
}
