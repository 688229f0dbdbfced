//go:build arm64

package simd

// NEON-shaped wide reduction kernels: 4 independent lanes (NEON's
// float32x4 register width), paired double accumulation.

func neonSum(x []float32) float64          { return wideSum(x, 4) }
func neonSumOfSquares(x []float32) float64 { return wideSumOfSquares(x, 4) }
func neonDotProduct(a, b []float32) float64 { return wideDotProduct(a, b, 4) }

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
