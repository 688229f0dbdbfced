//go:build arm64

package simd

import "golang.org/x/sys/cpu"

func selectKernels() {
	if cpu.ARM64.HasASIMD {
		activeLevel = LevelNEON
		sumFn, sumSqFn, dotProductFn = neonSum, neonSumOfSquares, neonDotProduct
	} else {
		activeLevel = LevelScalar
		sumFn, sumSqFn, dotProductFn = scalarSum, scalarSumOfSquares, scalarDotProduct
	}
	bindScalarExtras()
}
