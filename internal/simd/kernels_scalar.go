package simd

import "math"

// scalarSum accumulates with Kahan compensation, as mandated for the
// scalar path (spec §4.3, §9 numerical-stability note).
func scalarSum(x []float32) float64 {
	var sum, c float64
	for _, v := range x {
		y := float64(v) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func scalarSumOfSquares(x []float32) float64 {
	var sum, c float64
	for _, v := range x {
		sq := float64(v) * float64(v)
		y := sq - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func scalarDotProduct(a, b []float32) float64 {
	var sum, c float64
	for i := range a {
		p := float64(a[i]) * float64(b[i])
		y := p - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

func scalarAbsInplace(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = -v
		}
	}
}

func scalarMaxZeroInplace(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func scalarApplyWindow(in, win, out []float32, n int) {
	for i := 0; i < n; i++ {
		out[i] = in[i] * win[i]
	}
}

func scalarComplexMagnitude(re, im, out []float32, n int) {
	for i := 0; i < n; i++ {
		out[i] = float32(math.Hypot(float64(re[i]), float64(im[i])))
	}
}

func scalarComplexPower(re, im, out []float32, n int) {
	for i := 0; i < n; i++ {
		out[i] = re[i]*re[i] + im[i]*im[i]
	}
}

func scalarComplexMultiply(are, aim, bre, bim, outre, outim []float32, n int) {
	for i := 0; i < n; i++ {
		r := are[i]*bre[i] - aim[i]*bim[i]
		im := are[i]*bim[i] + aim[i]*bre[i]
		outre[i] = r
		outim[i] = im
	}
}

func scalarDeinterleave2Ch(in []float32, ch0, ch1 []float32) {
	n := len(in) / 2
	for i := 0; i < n; i++ {
		ch0[i] = in[2*i]
		ch1[i] = in[2*i+1]
	}
}

func scalarInterleave2Ch(ch0, ch1 []float32, out []float32) {
	n := len(ch0)
	for i := 0; i < n; i++ {
		out[2*i] = ch0[i]
		out[2*i+1] = ch1[i]
	}
}

func scalarDeinterleaveNCh(in []float32, channels int, out [][]float32) {
	n := len(in) / channels
	for c := 0; c < channels; c++ {
		for i := 0; i < n; i++ {
			out[c][i] = in[i*channels+c]
		}
	}
}

// bindScalarExtras wires the non-reduction kernels, which carry no
// accuracy-sensitive accumulation and so have a single implementation
// shared by every dispatch level.
func bindScalarExtras() {
	absInplaceFn = scalarAbsInplace
	maxZeroFn = scalarMaxZeroInplace
	applyWindowFn = scalarApplyWindow
	cMagFn = scalarComplexMagnitude
	cPowFn = scalarComplexPower
	cMulFn = scalarComplexMultiply
	deint2ChFn = scalarDeinterleave2Ch
	int2ChFn = scalarInterleave2Ch
	deintNChFn = scalarDeinterleaveNCh
	intNChFn = scalarInterleaveNCh
}

func scalarInterleaveNCh(in [][]float32, out []float32) {
	channels := len(in)
	if channels == 0 {
		return
	}
	n := len(in[0])
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = in[c][i]
		}
	}
}
