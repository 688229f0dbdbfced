package simd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.InDelta(t, 10.0, Sum([]float32{1, 2, 3, 4}), 1e-6)
}

func TestSumOfSquares(t *testing.T) {
	assert.InDelta(t, 30.0, SumOfSquares([]float32{1, 2, 3, 4}), 1e-6)
}

func TestDotProduct(t *testing.T) {
	assert.InDelta(t, 32.0, DotProduct([]float32{1, 2, 3}, []float32{3, 2, 5}), 1e-6)
}

func TestDotProductMismatchedLengthsPanics(t *testing.T) {
	assert.Panics(t, func() {
		DotProduct([]float32{1, 2}, []float32{1})
	})
}

func TestAbsInplace(t *testing.T) {
	x := []float32{-1, 2, -3}
	AbsInplace(x)
	assert.Equal(t, []float32{1, 2, 3}, x)
}

func TestMaxZeroInplace(t *testing.T) {
	x := []float32{-1, 0, 5}
	MaxZeroInplace(x)
	assert.Equal(t, []float32{0, 0, 5}, x)
}

func TestApplyWindow(t *testing.T) {
	in := []float32{1, 2, 3}
	win := []float32{0.5, 1, 0.5}
	out := make([]float32, 3)
	ApplyWindow(in, win, out, 3)
	assert.Equal(t, []float32{0.5, 2, 1.5}, out)
}

func TestComplexMagnitudeAndPower(t *testing.T) {
	re := []float32{3, 0}
	im := []float32{4, 0}
	mag := make([]float32, 2)
	pow := make([]float32, 2)
	ComplexMagnitude(re, im, mag, 2)
	ComplexPower(re, im, pow, 2)
	assert.InDelta(t, 5.0, mag[0], 1e-6)
	assert.InDelta(t, 25.0, pow[0], 1e-6)
}

func TestComplexMultiply(t *testing.T) {
	are := []float32{1}
	aim := []float32{2}
	bre := []float32{3}
	bim := []float32{4}
	outre := make([]float32, 1)
	outim := make([]float32, 1)
	ComplexMultiply(are, aim, bre, bim, outre, outim, 1)
	// (1+2i)*(3+4i) = 3+4i+6i-8 = -5+10i
	assert.InDelta(t, -5.0, outre[0], 1e-6)
	assert.InDelta(t, 10.0, outim[0], 1e-6)
}

func TestInterleaveDeinterleave2Ch(t *testing.T) {
	ch0 := []float32{1, 3}
	ch1 := []float32{2, 4}
	out := make([]float32, 4)
	Interleave2Ch(ch0, ch1, out)
	assert.Equal(t, []float32{1, 2, 3, 4}, out)

	gotCh0 := make([]float32, 2)
	gotCh1 := make([]float32, 2)
	Deinterleave2Ch(out, gotCh0, gotCh1)
	assert.Equal(t, ch0, gotCh0)
	assert.Equal(t, ch1, gotCh1)
}

func TestInterleaveDeinterleaveNCh(t *testing.T) {
	in := [][]float32{{1, 4}, {2, 5}, {3, 6}}
	out := make([]float32, 6)
	InterleaveNCh(in, out)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, out)

	got := [][]float32{make([]float32, 2), make([]float32, 2), make([]float32, 2)}
	DeinterleaveNCh(out, 3, got)
	for i := range in {
		assert.Equal(t, in[i], got[i])
	}
}

func TestActiveLevelIsSet(t *testing.T) {
	assert.NotEmpty(t, ActiveLevel())
}
