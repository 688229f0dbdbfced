// Package matrix implements the one-shot offline linear-algebra helpers
// (spec §4.8/§6, component M) that produce parameters for matrix-transform
// stages: PCA, ICA, whitening, a delay-and-sum beamformer, and
// common spatial patterns (CSP). No teacher file performs linear algebra
// at this level (Opus has no PCA/ICA stage); implemented directly against
// spec's named algorithms since no linear-algebra library appears anywhere
// in the example pack.
package matrix

import (
	"math"

	"github.com/dspxio/dspx/dspxerr"
)

// Mat is a dense row-major matrix.
type Mat [][]float64

// covariance computes the channel-by-channel covariance matrix of
// data (channels x samples) after centering.
func covariance(data Mat) (cov Mat, mean []float64) {
	c := len(data)
	if c == 0 {
		return nil, nil
	}
	n := len(data[0])
	mean = make([]float64, c)
	for i := 0; i < c; i++ {
		var s float64
		for _, v := range data[i] {
			s += v
		}
		mean[i] = s / float64(n)
	}
	cov = make(Mat, c)
	for i := range cov {
		cov[i] = make([]float64, c)
	}
	for i := 0; i < c; i++ {
		for j := i; j < c; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += (data[i][k] - mean[i]) * (data[j][k] - mean[j])
			}
			v := s / float64(n-1)
			cov[i][j] = v
			cov[j][i] = v
		}
	}
	return cov, mean
}

// jacobiEigen computes eigenvalues/eigenvectors of a symmetric matrix via
// the cyclic Jacobi rotation method.
func jacobiEigen(a Mat) (eigvals []float64, eigvecs Mat, err error) {
	n := len(a)
	m := make(Mat, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	v := make(Mat, n)
	for i := range v {
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	for iter := 0; iter < 100; iter++ {
		off := 0.0
		p, q := 0, 1
		maxVal := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += m[i][j] * m[i][j]
				if math.Abs(m[i][j]) > maxVal {
					maxVal = math.Abs(m[i][j])
					p, q = i, j
				}
			}
		}
		if off < 1e-18 {
			break
		}
		if m[p][p] == m[q][q] {
			if m[p][q] == 0 {
				continue
			}
		}
		theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
		t := sign(theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
		if theta == 0 {
			t = 1
		}
		c := 1 / math.Sqrt(t*t+1)
		s := t * c

		mpp, mqq, mpq := m[p][p], m[q][q], m[p][q]
		m[p][p] = c*c*mpp - 2*s*c*mpq + s*s*mqq
		m[q][q] = s*s*mpp + 2*s*c*mpq + c*c*mqq
		m[p][q] = 0
		m[q][p] = 0
		for i := 0; i < n; i++ {
			if i != p && i != q {
				mip, miq := m[i][p], m[i][q]
				m[i][p] = c*mip - s*miq
				m[p][i] = m[i][p]
				m[i][q] = s*mip + c*miq
				m[q][i] = m[i][q]
			}
		}
		for i := 0; i < n; i++ {
			vip, viq := v[i][p], v[i][q]
			v[i][p] = c*vip - s*viq
			v[i][q] = s*vip + c*viq
		}
	}

	eigvals = make([]float64, n)
	for i := 0; i < n; i++ {
		eigvals[i] = m[i][i]
	}
	return eigvals, v, nil
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// PCA computes the top numComponents principal components of data
// (channels x samples), returning the stacked component vectors
// (numComponents x channels, row-major flattened) and the per-channel
// mean.
func PCA(data Mat, numComponents int) (components []float64, mean []float64, err error) {
	cov, mean := covariance(data)
	if cov == nil {
		return nil, nil, dspxerr.New(dspxerr.KindInvalidArgument, "pca: empty data")
	}
	eigvals, eigvecs, err := jacobiEigen(cov)
	if err != nil {
		return nil, nil, dspxerr.New(dspxerr.KindNumericFailure, "pca: eigendecomposition failed")
	}
	n := len(eigvals)
	order := argsortDescending(eigvals)
	if numComponents > n {
		numComponents = n
	}
	components = make([]float64, 0, numComponents*n)
	for k := 0; k < numComponents; k++ {
		col := order[k]
		for row := 0; row < n; row++ {
			components = append(components, eigvecs[row][col])
		}
	}
	return components, mean, nil
}

func argsortDescending(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && v[idx[j]] > v[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

// Whiten computes a ZCA whitening matrix from a covariance matrix:
// W = E * D^-1/2 * E^T, where cov = E*D*E^T.
func Whiten(cov Mat) (whiteningMatrix Mat, err error) {
	n := len(cov)
	if n == 0 {
		return nil, dspxerr.New(dspxerr.KindInvalidArgument, "whiten: empty covariance")
	}
	eigvals, eigvecs, err := jacobiEigen(cov)
	if err != nil {
		return nil, dspxerr.New(dspxerr.KindNumericFailure, "whiten: eigendecomposition failed")
	}
	for _, ev := range eigvals {
		if ev <= 1e-12 {
			return nil, dspxerr.New(dspxerr.KindNumericFailure, "whiten: non-invertible covariance")
		}
	}
	invSqrtD := make([]float64, n)
	for i, ev := range eigvals {
		invSqrtD[i] = 1 / math.Sqrt(ev)
	}
	w := make(Mat, n)
	for i := range w {
		w[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += eigvecs[i][k] * invSqrtD[k] * eigvecs[j][k]
			}
			w[i][j] = s
		}
	}
	return w, nil
}

// ICA computes an unmixing matrix via FastICA with a logcosh (negentropy
// approximation) nonlinearity, after whitening the input.
func ICA(data Mat, numComponents int) (unmixing Mat, err error) {
	cov, mean := covariance(data)
	w, err := Whiten(cov)
	if err != nil {
		return nil, err
	}
	c := len(data)
	n := len(data[0])
	centered := make(Mat, c)
	for i := range centered {
		centered[i] = make([]float64, n)
		for k := 0; k < n; k++ {
			centered[i][k] = data[i][k] - mean[i]
		}
	}
	whitened := make(Mat, c)
	for i := 0; i < c; i++ {
		whitened[i] = make([]float64, n)
		for k := 0; k < n; k++ {
			var s float64
			for j := 0; j < c; j++ {
				s += w[i][j] * centered[j][k]
			}
			whitened[i][k] = s
		}
	}

	if numComponents > c {
		numComponents = c
	}
	unmixing = make(Mat, numComponents)
	for comp := 0; comp < numComponents; comp++ {
		wv := make([]float64, c)
		for i := range wv {
			wv[i] = math.Sin(float64(comp+1) * float64(i+1))
		}
		wv = normalize(wv)
		for iter := 0; iter < 200; iter++ {
			gwx := make([]float64, n)
			var gPrimeSum float64
			for k := 0; k < n; k++ {
				var dot float64
				for i := 0; i < c; i++ {
					dot += wv[i] * whitened[i][k]
				}
				gwx[k] = math.Tanh(dot)
				gPrimeSum += 1 - gwx[k]*gwx[k]
			}
			newW := make([]float64, c)
			for i := 0; i < c; i++ {
				var s float64
				for k := 0; k < n; k++ {
					s += whitened[i][k] * gwx[k]
				}
				newW[i] = s/float64(n) - (gPrimeSum/float64(n))*wv[i]
			}
			for comp2 := 0; comp2 < comp; comp2++ {
				proj := dotv(newW, unmixing[comp2])
				for i := range newW {
					newW[i] -= proj * unmixing[comp2][i]
				}
			}
			newW = normalize(newW)
			wv = newW
		}
		unmixing[comp] = wv
	}
	return unmixing, nil
}

func dotv(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func normalize(v []float64) []float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	n := math.Sqrt(s)
	if n == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// Beamformer computes delay-and-sum weights from steering vectors (one
// complex value per channel, representing the relative phase/amplitude of
// a target direction at the band of interest).
func Beamformer(steeringVectors []complex128) []complex128 {
	n := len(steeringVectors)
	weights := make([]complex128, n)
	for i, s := range steeringVectors {
		weights[i] = complexConj(s) / complex(float64(n), 0)
	}
	return weights
}

func complexConj(c complex128) complex128 { return complex(real(c), -imag(c)) }

// CSP computes common spatial pattern spatial filters from two class
// covariance matrices, returning numPairs filters from each end of the
// generalized eigenvalue spectrum (most discriminative for each class).
func CSP(covA, covB Mat, numPairs int) (filters Mat, err error) {
	n := len(covA)
	composite := make(Mat, n)
	for i := range composite {
		composite[i] = make([]float64, n)
		for j := range composite[i] {
			composite[i][j] = covA[i][j] + covB[i][j]
		}
	}
	eigvals, eigvecs, err := jacobiEigen(composite)
	if err != nil {
		return nil, dspxerr.New(dspxerr.KindNumericFailure, "csp: eigendecomposition failed")
	}
	for _, ev := range eigvals {
		if ev <= 1e-12 {
			return nil, dspxerr.New(dspxerr.KindNumericFailure, "csp: non-invertible composite covariance")
		}
	}
	p := make(Mat, n)
	for i := range p {
		p[i] = make([]float64, n)
		for j := range p[i] {
			p[i][j] = eigvecs[i][j] / math.Sqrt(eigvals[j])
		}
	}
	// Whitened class-A covariance: S = P^T * covA * P.
	s := matMulTransposeLeft(p, covA)
	eigvals2, eigvecs2, err := jacobiEigen(s)
	if err != nil {
		return nil, dspxerr.New(dspxerr.KindNumericFailure, "csp: eigendecomposition failed")
	}
	order := argsortDescending(eigvals2)
	if numPairs*2 > n {
		numPairs = n / 2
	}
	picks := append(append([]int{}, order[:numPairs]...), order[len(order)-numPairs:]...)
	filters = make(Mat, len(picks))
	for fi, col := range picks {
		w := make([]float64, n)
		for row := 0; row < n; row++ {
			var s float64
			for k := 0; k < n; k++ {
				s += p[row][k] * eigvecs2[k][col]
			}
			w[row] = s
		}
		filters[fi] = w
	}
	return filters, nil
}

func matMulTransposeLeft(p, a Mat) Mat {
	n := len(p)
	tmp := make(Mat, n)
	for i := range tmp {
		tmp[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += a[i][k] * p[k][j]
			}
			tmp[i][j] = s
		}
	}
	out := make(Mat, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += p[k][i] * tmp[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}
