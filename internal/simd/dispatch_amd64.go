//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func selectKernels() {
	switch {
	case cpu.X86.HasAVX2:
		activeLevel = LevelAVX2
		sumFn, sumSqFn, dotProductFn = avx2Sum, avx2SumOfSquares, avx2DotProduct
	case cpu.X86.HasSSE2:
		activeLevel = LevelSSE2
		sumFn, sumSqFn, dotProductFn = sse2Sum, sse2SumOfSquares, sse2DotProduct
	default:
		activeLevel = LevelScalar
		sumFn, sumSqFn, dotProductFn = scalarSum, scalarSumOfSquares, scalarDotProduct
	}
	bindScalarExtras()
}
