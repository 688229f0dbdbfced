//go:build amd64

package simd

// Wide reduction kernels for amd64. These are pure Go, shaped for the
// compiler's auto-vectorizer / for a future assembly swap-in: paired
// double accumulators so partial sums can run independently (the "vector
// path" contract of spec §4.3/§9), unrolled 8-wide for the AVX2 variant
// and 4-wide for the SSE2 variant. Selection between them happens once at
// init via a golang.org/x/sys/cpu feature probe (dispatch_amd64.go).

func avx2Sum(x []float32) float64 {
	return wideSum(x, 8)
}

func avx2SumOfSquares(x []float32) float64 {
	return wideSumOfSquares(x, 8)
}

func avx2DotProduct(a, b []float32) float64 {
	return wideDotProduct(a, b, 8)
}

func sse2Sum(x []float32) float64 {
	return wideSum(x, 4)
}

func sse2SumOfSquares(x []float32) float64 {
	return wideSumOfSquares(x, 4)
}

func sse2DotProduct(a, b []float32) float64 {
	return wideDotProduct(a, b, 4)
}

// wideSum accumulates `lanes` independent double accumulators round-robin
// over x, then adds the lane totals together in order. This matches paired-accumulator
// vector-path behavior without requiring Kahan compensation (spec §9: the
// vector path uses paired double accumulators, the scalar path uses Kahan).
func wideSum(x []float32, lanes int) float64 {
	acc := make([]float64, lanes)
	n := len(x)
	i := 0
	for ; i+lanes <= n; i += lanes {
		for l := 0; l < lanes; l++ {
			acc[l] += float64(x[i+l])
		}
	}
	total := combine(acc)
	for ; i < n; i++ {
		total += float64(x[i])
	}
	return total
}

func wideSumOfSquares(x []float32, lanes int) float64 {
	acc := make([]float64, lanes)
	n := len(x)
	i := 0
	for ; i+lanes <= n; i += lanes {
		for l := 0; l < lanes; l++ {
			v := float64(x[i+l])
			acc[l] += v * v
		}
	}
	total := combine(acc)
	for ; i < n; i++ {
		v := float64(x[i])
		total += v * v
	}
	return total
}

func wideDotProduct(a, b []float32, lanes int) float64 {
	acc := make([]float64, lanes)
	n := len(a)
	i := 0
	for ; i+lanes <= n; i += lanes {
		for l := 0; l < lanes; l++ {
			acc[l] += float64(a[i+l]) * float64(b[i+l])
		}
	}
	total := combine(acc)
	for ; i < n; i++ {
		total += float64(a[i]) * float64(b[i])
	}
	return total
}

func combine(acc []float64) float64 {
	var total float64
	for _, v := range acc {
		total += v
	}
	return total
}
