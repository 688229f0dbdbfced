// Package simd provides branch-chosen numeric kernels (spec §4.3): a
// scalar path guaranteed correct on every platform, plus wider-unrolled
// "vector" paths selected once at process start via a function-pointer
// table, the way the teacher's celt package splits kernels across
// GOARCH-tagged files (celt/sum_sq_default.go vs celt/sum_sq_asm.go) —
// extended here with a runtime x/sys/cpu probe so amd64 additionally
// branches between an AVX2-shaped and an SSE2-shaped kernel instead of
// only a compile-time choice.
package simd

// Level names the kernel family selected for this process.
type Level string

const (
	LevelAVX2   Level = "avx2"
	LevelSSE2   Level = "sse2"
	LevelNEON   Level = "neon"
	LevelScalar Level = "scalar"
)

var activeLevel Level

// ActiveLevel reports which kernel family was selected at init time.
func ActiveLevel() Level { return activeLevel }

type (
	reduceFn    func(x []float32) float64
	dotFn       func(a, b []float32) float64
	inplaceFn   func(x []float32)
	windowFn    func(in, win, out []float32, n int)
	cmagFn      func(re, im, out []float32, n int)
	cmulFn      func(are, aim, bre, bim, outre, outim []float32, n int)
	deint2Fn    func(in []float32, ch0, ch1 []float32)
	int2Fn      func(ch0, ch1 []float32, out []float32)
	deintNFn    func(in []float32, channels int, out [][]float32)
	intNFn      func(in [][]float32, out []float32)
)

var (
	sumFn          reduceFn
	sumSqFn        reduceFn
	dotProductFn   dotFn
	absInplaceFn   inplaceFn
	maxZeroFn      inplaceFn
	applyWindowFn  windowFn
	cMagFn         cmagFn
	cPowFn         cmagFn
	cMulFn         cmulFn
	deint2ChFn     deint2Fn
	int2ChFn       int2Fn
	deintNChFn     deintNFn
	intNChFn       intNFn
)

func init() {
	selectKernels()
}

// Sum returns the double-precision sum of x.
func Sum(x []float32) float64 { return sumFn(x) }

// SumOfSquares returns the double-precision sum of squares of x.
func SumOfSquares(x []float32) float64 { return sumSqFn(x) }

// DotProduct returns the double-precision dot product of a and b. Panics if
// lengths differ.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		panic("simd: DotProduct length mismatch")
	}
	return dotProductFn(a, b)
}

// AbsInplace replaces each element of x with its absolute value.
func AbsInplace(x []float32) { absInplaceFn(x) }

// MaxZeroInplace replaces each element of x with max(0, x).
func MaxZeroInplace(x []float32) { maxZeroFn(x) }

// ApplyWindow writes out[i] = in[i] * win[i] for i in [0,n).
func ApplyWindow(in, win, out []float32, n int) { applyWindowFn(in, win, out, n) }

// ComplexMagnitude writes out[i] = sqrt(re[i]^2 + im[i]^2) for i in [0,n).
func ComplexMagnitude(re, im, out []float32, n int) { cMagFn(re, im, out, n) }

// ComplexPower writes out[i] = re[i]^2 + im[i]^2 for i in [0,n).
func ComplexPower(re, im, out []float32, n int) { cPowFn(re, im, out, n) }

// ComplexMultiply writes (outre,outim) = (are,aim) * (bre,bim) element-wise.
func ComplexMultiply(are, aim, bre, bim, outre, outim []float32, n int) {
	cMulFn(are, aim, bre, bim, outre, outim, n)
}

// Deinterleave2Ch splits an interleaved 2-channel buffer into ch0, ch1.
func Deinterleave2Ch(in []float32, ch0, ch1 []float32) { deint2ChFn(in, ch0, ch1) }

// Interleave2Ch merges ch0, ch1 into an interleaved 2-channel buffer.
func Interleave2Ch(ch0, ch1 []float32, out []float32) { int2ChFn(ch0, ch1, out) }

// DeinterleaveNCh splits an interleaved N-channel buffer into per-channel
// slices. len(out) must equal channels.
func DeinterleaveNCh(in []float32, channels int, out [][]float32) {
	deintNChFn(in, channels, out)
}

// InterleaveNCh merges per-channel slices into an interleaved buffer.
func InterleaveNCh(in [][]float32, out []float32) { intNChFn(in, out) }
