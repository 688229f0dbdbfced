package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCAPicksHighestVarianceAxis(t *testing.T) {
	// Channel 0 varies, channel 1 is constant, so the covariance matrix is
	// already diagonal and the top component must align with channel 0.
	data := Mat{
		{1, -1, 2, -2, 3, -3},
		{5, 5, 5, 5, 5, 5},
	}
	components, mean, err := PCA(data, 1)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.InDelta(t, 1.0, components[0], 1e-9)
	assert.InDelta(t, 0.0, components[1], 1e-9)
	assert.InDelta(t, 5.0, mean[1], 1e-9)
}

func TestPCARejectsEmptyData(t *testing.T) {
	_, _, err := PCA(nil, 1)
	assert.Error(t, err)
}

func TestWhitenDiagonalCovariance(t *testing.T) {
	cov := Mat{{4, 0}, {0, 9}}
	w, err := Whiten(cov)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w[0][0], 1e-9)
	assert.InDelta(t, 1.0/3.0, w[1][1], 1e-9)
	assert.InDelta(t, 0.0, w[0][1], 1e-9)
}

func TestWhitenRejectsSingularCovariance(t *testing.T) {
	_, err := Whiten(Mat{{0, 0}, {0, 0}})
	assert.Error(t, err)
}

func TestBeamformerConjugatesAndNormalizes(t *testing.T) {
	weights := Beamformer([]complex128{complex(1, 0), complex(0, 1)})
	require.Len(t, weights, 2)
	assert.InDelta(t, 0.5, real(weights[0]), 1e-9)
	assert.InDelta(t, 0.0, imag(weights[0]), 1e-9)
	assert.InDelta(t, 0.0, real(weights[1]), 1e-9)
	assert.InDelta(t, -0.5, imag(weights[1]), 1e-9)
}

func TestCSPRejectsSingularComposite(t *testing.T) {
	zero := Mat{{0, 0}, {0, 0}}
	_, err := CSP(zero, zero, 1)
	assert.Error(t, err)
}
