package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspxio/dspx/dspxerr"
)

func baseConfig() Config {
	return Config{
		TargetSampleRate: 1000,
		Interpolation:    InterpLinear,
		GapPolicy:        GapInterpolate,
		GapThresholdMult: 2.0,
		Drift:            DriftNone,
	}
}

func TestAlignIrregularGridLinear(t *testing.T) {
	values := []float32{0, 1, 2, 3, 4}
	timestamps := []float32{0, 0.9, 2.1, 3.0, 4.2}

	outVals, outTimes, stats, err := Align(values, timestamps, baseConfig())
	require.NoError(t, err)

	require.Len(t, outVals, 6)
	require.Len(t, outTimes, 6)
	assert.Equal(t, 5, stats.InputSamples)
	assert.InDelta(t, 0.0, outTimes[0], 1e-6)
	assert.InDelta(t, 1.0, outTimes[1], 1e-6)
	assert.InDelta(t, 1.083333, outVals[1], 1e-3)
}

func TestAlignRejectsNonMonotonicTimestamps(t *testing.T) {
	_, _, _, err := Align([]float32{0, 1}, []float32{1, 0}, baseConfig())
	assert.ErrorIs(t, err, dspxerr.NonMonotonic)
}

func TestAlignGapErrorPolicyRejectsLargeGaps(t *testing.T) {
	cfg := baseConfig()
	cfg.GapPolicy = GapError
	_, _, _, err := Align([]float32{0, 1}, []float32{0, 100}, cfg)
	require.Error(t, err)
}

func TestAlignGapZeroFillInsertsZeros(t *testing.T) {
	cfg := baseConfig()
	cfg.GapPolicy = GapZeroFill
	cfg.TargetSampleRate = 1
	vals, _, _, err := Align([]float32{1, 1}, []float32{0, 5000}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, vals[len(vals)/2], 1e-6)
}

func TestAlignGapHoldRepeatsLastValue(t *testing.T) {
	cfg := baseConfig()
	cfg.GapPolicy = GapHold
	cfg.TargetSampleRate = 1
	vals, _, _, err := Align([]float32{3, 9}, []float32{0, 5000}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, vals[len(vals)/2], 1e-6)
}

func TestAlignConstantRateHasNoGaps(t *testing.T) {
	values := make([]float32, 10)
	timestamps := make([]float32, 10)
	for i := range values {
		values[i] = float32(i)
		timestamps[i] = float32(i)
	}
	_, _, stats, err := Align(values, timestamps, baseConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.GapCount)
}

func TestAlignDriftRegressionEstimatesRate(t *testing.T) {
	cfg := baseConfig()
	cfg.Drift = DriftRegression
	values := make([]float32, 20)
	timestamps := make([]float32, 20)
	for i := range values {
		values[i] = float32(i)
		timestamps[i] = float32(i) * 2 // 500Hz actual rate
	}
	_, _, stats, err := Align(values, timestamps, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, stats.EstimatedRateHz, 1.0)
}
