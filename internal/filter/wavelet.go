package filter

// Wavelet holds the low-pass (scaling) and high-pass (wavelet) analysis
// filter pairs for a single-level discrete wavelet transform. A DWT level
// is exactly a pair of FIR-filter-then-decimate-by-2 operations, so this
// type is built directly on FIR (spec SPEC_FULL's grounding for the
// waveletTransform stage).
type Wavelet struct {
	Low, High *FIR
}

// daubechiesCoeffs holds orthonormal scaling-filter coefficients for
// Daubechies db1 (= Haar) through db5, the standard published values.
var daubechiesCoeffs = map[string][]float32{
	"db1": {0.7071067811865476, 0.7071067811865476},
	"db2": {-0.12940952255092145, 0.22414386804185735, 0.836516303737469, 0.48296291314469025},
	"db3": {0.035226291882100656, -0.08544127388224149, -0.13501102001039084, 0.4598775021193313,
		0.8068915093133388, 0.3326705529509569},
	"db4": {-0.010597401784997278, 0.032883011666982945, 0.030841381835986965, -0.18703481171888114,
		-0.02798376941698385, 0.6308807679295904, 0.7148465705525415, 0.23037781330885523},
	"db5": {0.003335725285001549, -0.012580751999015526, -0.006241490213011705, 0.07757149384006515,
		-0.03224486958502952, -0.24229488706619015, 0.13842814590110342, 0.7243085284385744,
		0.6038292697974729, 0.160102397974125},
}

// NewWavelet constructs a Wavelet from a named kind. "haar" and "db1"
// through "db5" use their own coefficients; any other name, "db6".."db10"
// included, gets the Haar pair. The waveletTransform registry entry rejects
// names other than "haar" and "db1".."db10" before calling here.
func NewWavelet(kind string) *Wavelet {
	if kind == "haar" {
		kind = "db1"
	}
	coeffs, ok := daubechiesCoeffs[kind]
	if !ok {
		coeffs = daubechiesCoeffs["db1"]
	}
	low := append([]float32(nil), coeffs...)
	high := make([]float32, len(coeffs))
	// Quadrature mirror relation: g[L-1-n] = (-1)^n * h[n].
	for i, c := range coeffs {
		sign := float32(1)
		if i%2 != 0 {
			sign = -1
		}
		high[len(coeffs)-1-i] = sign * c
	}
	return &Wavelet{Low: NewFIR(low), High: NewFIR(high)}
}

// DecomposeLevel runs one level of the DWT over in, returning the
// downsampled-by-2 approximation and detail coefficients.
func (w *Wavelet) DecomposeLevel(in []float32) (approx, detail []float32) {
	n := len(in)
	full := make([]float32, n)
	w.Low.Process(in, full, true)
	approx = downsampleBy2(full)

	w.High.Process(in, full, true)
	detail = downsampleBy2(full)
	return approx, detail
}

func downsampleBy2(x []float32) []float32 {
	out := make([]float32, (len(x)+1)/2)
	for i := range out {
		out[i] = x[2*i]
	}
	return out
}
