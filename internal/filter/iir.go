package filter

import "math/cmplx"

// IIR is a direct-form-I infinite-impulse-response filter:
// y = (Σ b_k x_{n-k} - Σ a_k y_{n-k}) / a_0.
type IIR struct {
	B, A  []float32 // A[0] is the leading denominator coefficient
	xHist []float32 // newest-first, len == len(B)
	yHist []float32 // newest-first, len == len(A)-1 (y_{n-1}..y_{n-len(A)+1})
}

// NewIIR constructs an IIR filter from numerator b and denominator a.
func NewIIR(b, a []float32) *IIR {
	f := &IIR{B: append([]float32(nil), b...), A: append([]float32(nil), a...)}
	f.xHist = make([]float32, len(b))
	if len(a) > 1 {
		f.yHist = make([]float32, len(a)-1)
	}
	return f
}

// Reset zeroes the input/output history.
func (f *IIR) Reset() {
	for i := range f.xHist {
		f.xHist[i] = 0
	}
	for i := range f.yHist {
		f.yHist[i] = 0
	}
}

// ProcessSample computes one output sample and updates history.
func (f *IIR) ProcessSample(x float32) float32 {
	copy(f.xHist[1:], f.xHist[:len(f.xHist)-1])
	f.xHist[0] = x

	var num float64
	for i, b := range f.B {
		num += float64(b) * float64(f.xHist[i])
	}
	var denomSum float64
	for i := 1; i < len(f.A); i++ {
		denomSum += float64(f.A[i]) * float64(f.yHist[i-1])
	}
	y := float32((num - denomSum) / float64(f.A[0]))

	if len(f.yHist) > 0 {
		copy(f.yHist[1:], f.yHist[:len(f.yHist)-1])
		f.yHist[0] = y
	}
	return y
}

// Process filters in into out, stateless or stateful per FIR's convention.
func (f *IIR) Process(in, out []float32, stateless bool) {
	var savedX, savedY []float32
	if stateless {
		savedX = append([]float32(nil), f.xHist...)
		savedY = append([]float32(nil), f.yHist...)
	}
	for i, x := range in {
		out[i] = f.ProcessSample(x)
	}
	if stateless {
		f.xHist = savedX
		f.yHist = savedY
	}
}

// XState returns the current input-history contents, for snapshotting.
func (f *IIR) XState() []float32 { return append([]float32(nil), f.xHist...) }

// YState returns the current output-history contents, for snapshotting.
func (f *IIR) YState() []float32 { return append([]float32(nil), f.yHist...) }

// SetState restores input/output history from a previously saved snapshot.
func (f *IIR) SetState(x, y []float32) {
	f.xHist = append([]float32(nil), x...)
	f.yHist = append([]float32(nil), y...)
}

// IsStable returns true iff every pole of the filter lies strictly inside
// the unit circle, checked by explicit root-finding on the denominator
// polynomial via Durand-Kerner (sufficient for the low-order designs this
// package constructs).
func (f *IIR) IsStable() bool {
	a := normalizedPoly(f.A)
	if len(a) <= 1 {
		return true
	}
	roots := durandKerner(a)
	for _, r := range roots {
		if cmplx.Abs(r) >= 1.0 {
			return false
		}
	}
	return true
}

func normalizedPoly(a []float32) []complex128 {
	out := make([]complex128, len(a))
	lead := float64(a[0])
	for i, v := range a {
		out[i] = complex(float64(v)/lead, 0)
	}
	return out
}

// durandKerner finds all roots of the polynomial with coefficients coeffs
// (coeffs[0] is the leading, coeffs[len-1] the constant term), via the
// Durand-Kerner simultaneous iteration.
func durandKerner(coeffs []complex128) []complex128 {
	deg := len(coeffs) - 1
	if deg <= 0 {
		return nil
	}
	roots := make([]complex128, deg)
	base := complex(0.4, 0.9)
	p := complex(1.0, 0.0)
	for i := range roots {
		roots[i] = p
		p *= base
	}
	evalPoly := func(z complex128) complex128 {
		var v complex128
		for _, c := range coeffs {
			v = v*z + c
		}
		return v
	}
	for iter := 0; iter < 200; iter++ {
		maxDelta := 0.0
		for i := range roots {
			denom := complex128(1)
			for j := range roots {
				if i == j {
					continue
				}
				denom *= roots[i] - roots[j]
			}
			if denom == 0 {
				continue
			}
			delta := evalPoly(roots[i]) / denom
			roots[i] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < 1e-12 {
			break
		}
	}
	return roots
}
