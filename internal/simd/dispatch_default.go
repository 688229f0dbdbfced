//go:build !amd64 && !arm64

package simd

func selectKernels() {
	activeLevel = LevelScalar
	sumFn, sumSqFn, dotProductFn = scalarSum, scalarSumOfSquares, scalarDotProduct
	bindScalarExtras()
}
